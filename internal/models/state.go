package models

import "fmt"

type DraftState int

const (
	StateAwaitingPhoto DraftState = iota
	StateAwaitingCaption
	StateAwaitingButtons
	StateAwaitingTime
	StateAwaitingFile
	StateCompleted
	StateCancelled
)

func (s DraftState) String() string {
	switch s {
	case StateAwaitingPhoto:
		return "awaiting_photo"
	case StateAwaitingCaption:
		return "awaiting_caption"
	case StateAwaitingButtons:
		return "awaiting_buttons"
	case StateAwaitingTime:
		return "awaiting_time"
	case StateAwaitingFile:
		return "awaiting_file"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further input is accepted.
func (s DraftState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}
