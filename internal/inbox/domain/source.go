package domain

import (
	"context"
	"net/textproto"
	"time"
)

// Header names read from fetched messages
const (
	HeaderFrom      = "From"
	HeaderSubject   = "Subject"
	HeaderDate      = "Date"
	HeaderMessageID = "Message-Id"
)

// MessagePage is one page of unread message identifiers, in listing order.
type MessagePage struct {
	IDs           []string
	NextPageToken string
}

// RawMessage is a fully fetched message before enrichment.
type RawMessage struct {
	ID           string
	Headers      textproto.MIMEHeader
	Snippet      string
	InternalDate time.Time
}

// MessageSource wraps a remote mailbox. Implementations: pkg/gmail, pkg/imap.
type MessageSource interface {
	// ListUnread lists up to max unread message ids. An empty pageToken requests the first page.
	ListUnread(ctx context.Context, pageToken string, max int) (*MessagePage, error)
	// FetchFull fetches headers and snippet of one message.
	FetchFull(ctx context.Context, id string) (*RawMessage, error)
	// RemoveUnreadLabel marks the message read. Removing an absent label is not an error.
	RemoveUnreadLabel(ctx context.Context, id string) error
	// Send submits one base64url-encoded RFC 2822 message. Not idempotent.
	Send(ctx context.Context, raw, authToken string) error
}
