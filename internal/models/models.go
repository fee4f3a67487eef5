package models

import "time"

// Button is a single URL button rendered on its own keyboard row.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// PostDraft is the content collected by the authoring conversation.
type PostDraft struct {
	AuthorID     int64     `json:"author_id"`
	TargetChatID int64     `json:"target_chat_id"` // where the post goes
	PhotoRef     string    `json:"photo_ref"`
	Caption      string    `json:"caption"`
	Buttons      []Button  `json:"buttons"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	FileRef      string    `json:"file_ref,omitempty"` // "" -> no attachment
}

// Clone returns a deep copy so the scheduler owns its own button slice.
func (d PostDraft) Clone() PostDraft {
	c := d
	c.Buttons = make([]Button, len(d.Buttons))
	copy(c.Buttons, d.Buttons)
	return c
}

// HasFile reports whether a follow-up document has to be published.
func (d PostDraft) HasFile() bool {
	return d.FileRef != ""
}

// ScheduledJob is a frozen draft waiting for its fire time.
type ScheduledJob struct {
	Name   string        `json:"name"`
	Draft  PostDraft     `json:"draft"`
	FireAt time.Time     `json:"fire_at"`
	Delay  time.Duration `json:"delay"`
}

// WarnRecord stores accumulated warnings of a user inside a group.
type WarnRecord struct {
	ChatID    int64 `db:"chat_id"    json:"chat_id"`
	UserID    int64 `db:"user_id"    json:"user_id"`
	Count     uint  `db:"count"      json:"count"`
	UpdatedAt int64 `db:"updated_at" json:"updated_at"`
}
