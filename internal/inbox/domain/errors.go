package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a top-level pipeline call arrives while another is in flight.
	ErrBusy = errors.New("pipeline busy: another operation is in flight")
	// ErrInvalidCursor is returned by LoadMore when no continuation cursor is held.
	ErrInvalidCursor = errors.New("no page cursor held: nothing more to load")
)

// ListError aborts a whole refresh/load-more; the accumulated set keeps its pre-call value.
type ListError struct {
	Err error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list unread messages: %v", e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// ItemFetchError is an isolated per-message fetch failure
type ItemFetchError struct {
	ID  string
	Err error
}

func (e *ItemFetchError) Error() string {
	return fmt.Sprintf("failed to fetch message %s: %v", e.ID, e.Err)
}

func (e *ItemFetchError) Unwrap() error { return e.Err }

// ItemClassifyError is an isolated per-message enrichment failure
type ItemClassifyError struct {
	ID  string
	Err error
}

func (e *ItemClassifyError) Error() string {
	return fmt.Sprintf("failed to classify message %s: %v", e.ID, e.Err)
}

func (e *ItemClassifyError) Unwrap() error { return e.Err }

// ReadStateUpdateError leaves the accumulated set unchanged; the caller may retry.
type ReadStateUpdateError struct {
	ID  string
	Err error
}

func (e *ReadStateUpdateError) Error() string {
	return fmt.Sprintf("could not mark message %s as read: %v", e.ID, e.Err)
}

func (e *ReadStateUpdateError) Unwrap() error { return e.Err }

// DraftGenerationError carries the adapter's message verbatim for display.
type DraftGenerationError struct {
	Message string
	Err     error
}

func (e *DraftGenerationError) Error() string {
	return e.Message
}

func (e *DraftGenerationError) Unwrap() error { return e.Err }

// SendError covers both precondition failures (no draft, no token, already sent)
// and remote failures. Sends are never retried automatically.
type SendError struct {
	Reason       string
	Precondition bool
	Err          error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to send reply: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to send reply: %s", e.Reason)
}

func (e *SendError) Unwrap() error { return e.Err }
