package maildrop

import "errors"

var (
	// ErrNoSuchMessage is returned when a message number is out of range.
	ErrNoSuchMessage = errors.New("no such message")

	// ErrMessageDeleted is returned when referencing a message already
	// marked for deletion.
	ErrMessageDeleted = errors.New("message already deleted")
)
