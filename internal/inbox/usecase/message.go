package usecase

import (
	"net/mail"
	"strings"

	"email-insight-backend/internal/inbox/domain"
)

const (
	fallbackSender  = "Unknown Sender"
	fallbackSubject = "No Subject"
)

// itemFromRaw extracts the display fields of a fetched message. Missing headers
// fall back to fixed values instead of failing the item.
func itemFromRaw(id string, raw *domain.RawMessage) domain.MailboxItem {
	item := domain.MailboxItem{
		ID:      id,
		Sender:  fallbackSender,
		Subject: fallbackSubject,
		Snippet: raw.Snippet,
	}
	if raw.Headers == nil {
		item.ReceivedAt = raw.InternalDate
		return item
	}

	if from := strings.TrimSpace(raw.Headers.Get(domain.HeaderFrom)); from != "" {
		item.Sender = from
	}
	if subject := strings.TrimSpace(raw.Headers.Get(domain.HeaderSubject)); subject != "" {
		item.Subject = subject
	}
	item.ThreadHeaderID = strings.TrimSpace(raw.Headers.Get(domain.HeaderMessageID))

	item.ReceivedAt = raw.InternalDate
	if date := raw.Headers.Get(domain.HeaderDate); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			item.ReceivedAt = t
		}
	}
	return item
}
