package mandrill

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode indicates the webhook payload is not a valid event batch.  It is fatal to the whole
	// batch.
	ErrDecode = errors.New("malformed webhook payload")

	// ErrAttachmentDecode indicates attachment content flagged as base64 could not be decoded.  It
	// fails the normalization of the containing message.
	ErrAttachmentDecode = errors.New("undecodable attachment content")

	// ErrMissingRawMessage indicates an event has neither a sender address nor a raw message to
	// recover one from.  Only reported when a sender is required.
	ErrMissingRawMessage = errors.New("no sender address and no raw message sender")
)

// EventError records the failure to normalize one event of a batch.
type EventError struct {
	// Index of the event among the inbound events of the batch.
	Index int
	Err   error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %d: %v", e.Index, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}
