package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalid is returned when the collected answers fail required-field
	// validation.
	ErrInvalid = errors.New("tui: submission is invalid")
)
