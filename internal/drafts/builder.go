// Package drafts runs the per-author authoring conversation that collects
// a post step by step and hands the finished draft to the scheduler.
package drafts

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/puzpuzpuz/xsync/v3"

	"telegram-post-guard/internal/metrics"
	"telegram-post-guard/internal/models"
)

var (
	ErrNoDraft      = errors.New("no draft in progress")
	ErrParseFailure = errors.New("cannot parse publish time")
)

// Submitter takes ownership of a completed draft.
type Submitter interface {
	Schedule(job models.ScheduledJob) error
}

type InputKind int

const (
	InputText InputKind = iota
	InputPhoto
	InputDocument
)

type Input struct {
	Kind    InputKind
	Text    string
	FileRef string
}

func Text(s string) Input       { return Input{Kind: InputText, Text: s} }
func Photo(ref string) Input    { return Input{Kind: InputPhoto, FileRef: ref} }
func Document(ref string) Input { return Input{Kind: InputDocument, FileRef: ref} }

// Result describes the state after a step. Advanced is false when the input
// was ignored or rejected; Job is set once the draft is completed.
type Result struct {
	State    models.DraftState
	Advanced bool
	Job      *models.ScheduledJob
}

// JobName is the scheduler key of an author's post.
func JobName(authorID int64) string {
	return fmt.Sprintf("post:%d", authorID)
}

type session struct {
	mu     sync.Mutex
	closed bool
	state  models.DraftState
	draft  models.PostDraft
}

type Builder struct {
	clock    clockwork.Clock
	loc      *time.Location
	submit   Submitter
	sessions *xsync.MapOf[int64, *session]
}

type Option func(*Builder)

func WithClock(c clockwork.Clock) Option {
	return func(b *Builder) { b.clock = c }
}

// WithLocation sets the zone used for times typed without an offset.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) { b.loc = loc }
}

func New(submit Submitter, opts ...Option) *Builder {
	b := &Builder{
		clock:    clockwork.NewRealClock(),
		loc:      time.UTC,
		submit:   submit,
		sessions: xsync.NewMapOf[int64, *session](),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// acquire returns the author's live session locked. Sessions closed by a
// concurrent completion or cancel are skipped.
func (b *Builder) acquire(authorID int64, create bool) (*session, error) {
	for {
		var s *session
		if create {
			s, _ = b.sessions.LoadOrCompute(authorID, func() *session { return &session{} })
		} else {
			var ok bool
			if s, ok = b.sessions.Load(authorID); !ok {
				return nil, ErrNoDraft
			}
		}
		s.mu.Lock()
		if !s.closed {
			return s, nil
		}
		s.mu.Unlock()
	}
}

// close must be called with s.mu held.
func (b *Builder) close(authorID int64, s *session, final models.DraftState) {
	s.closed = true
	s.state = final
	b.sessions.Delete(authorID)
	metrics.ActiveDrafts.Set(float64(b.sessions.Size()))
}

// Start opens a fresh draft, replacing any draft the author already had.
func (b *Builder) Start(authorID, targetChatID int64) models.DraftState {
	return b.start(authorID, targetChatID, "")
}

// StartWithPhoto opens a draft whose photo is already known.
func (b *Builder) StartWithPhoto(authorID, targetChatID int64, photoRef string) models.DraftState {
	return b.start(authorID, targetChatID, photoRef)
}

func (b *Builder) start(authorID, targetChatID int64, photoRef string) models.DraftState {
	s, _ := b.acquire(authorID, true)
	defer s.mu.Unlock()

	s.draft = models.PostDraft{AuthorID: authorID, TargetChatID: targetChatID}
	s.state = models.StateAwaitingPhoto
	if photoRef != "" {
		s.draft.PhotoRef = photoRef
		s.state = models.StateAwaitingCaption
	}
	metrics.ActiveDrafts.Set(float64(b.sessions.Size()))
	return s.state
}

// Handle feeds one input to the author's draft.
func (b *Builder) Handle(authorID int64, in Input) (Result, error) {
	s, err := b.acquire(authorID, false)
	if err != nil {
		return Result{}, err
	}
	defer s.mu.Unlock()

	res := Result{State: s.state}
	switch s.state {
	case models.StateAwaitingPhoto:
		if in.Kind != InputPhoto || in.FileRef == "" {
			return res, nil
		}
		s.draft.PhotoRef = in.FileRef
		s.state = models.StateAwaitingCaption

	case models.StateAwaitingCaption:
		if in.Kind != InputText {
			return res, nil
		}
		if IsSkip(in.Text) {
			s.draft.Caption = ""
		} else {
			s.draft.Caption = in.Text
		}
		s.state = models.StateAwaitingButtons

	case models.StateAwaitingButtons:
		if in.Kind != InputText {
			return res, nil
		}
		if IsSkip(in.Text) {
			s.draft.Buttons = []models.Button{}
		} else {
			s.draft.Buttons = ParseButtons(in.Text)
		}
		s.state = models.StateAwaitingTime

	case models.StateAwaitingTime:
		if in.Kind != InputText {
			return res, nil
		}
		at, err := ParseTime(in.Text, b.clock.Now(), b.loc)
		if err != nil {
			return res, fmt.Errorf("%w: %q", ErrParseFailure, in.Text)
		}
		s.draft.ScheduledAt = at
		s.state = models.StateAwaitingFile

	case models.StateAwaitingFile:
		switch {
		case in.Kind == InputDocument && in.FileRef != "":
			s.draft.FileRef = in.FileRef
		case in.Kind == InputText && IsSkip(in.Text):
			s.draft.FileRef = ""
		default:
			return res, nil
		}
		return b.complete(authorID, s)
	}

	return Result{State: s.state, Advanced: true}, nil
}

func (b *Builder) complete(authorID int64, s *session) (Result, error) {
	draft := s.draft.Clone()
	job := models.ScheduledJob{
		Name:   JobName(authorID),
		Draft:  draft,
		FireAt: draft.ScheduledAt,
		Delay:  Delay(draft.ScheduledAt, b.clock.Now()),
	}
	if err := b.submit.Schedule(job); err != nil {
		s.draft.FileRef = ""
		return Result{State: s.state}, err
	}
	b.close(authorID, s, models.StateCompleted)
	return Result{State: models.StateCompleted, Advanced: true, Job: &job}, nil
}

// Cancel drops the author's draft and reports whether there was one.
func (b *Builder) Cancel(authorID int64) bool {
	s, err := b.acquire(authorID, false)
	if err != nil {
		return false
	}
	defer s.mu.Unlock()
	b.close(authorID, s, models.StateCancelled)
	return true
}

// State returns the current step of the author's draft, if any.
func (b *Builder) State(authorID int64) (models.DraftState, bool) {
	s, err := b.acquire(authorID, false)
	if err != nil {
		return 0, false
	}
	defer s.mu.Unlock()
	return s.state, true
}

// Draft returns a copy of the author's in-progress draft.
func (b *Builder) Draft(authorID int64) (models.PostDraft, bool) {
	s, err := b.acquire(authorID, false)
	if err != nil {
		return models.PostDraft{}, false
	}
	defer s.mu.Unlock()
	return s.draft.Clone(), true
}

// Active is the number of drafts in progress.
func (b *Builder) Active() int {
	return b.sessions.Size()
}
