package domain

import (
	"io"
	"sync"
	"time"

	inboxdomain "email-insight-backend/internal/inbox/domain"
	inboxusecase "email-insight-backend/internal/inbox/usecase"
)

// Provider identifies the kind of mailbox a session is connected to
type Provider string

const (
	ProviderGmail Provider = "gmail"
	ProviderIMAP  Provider = "imap"
)

// Session is one live mailbox connection together with the pipelines that own its
// accumulated set. It is created on connect and discarded on disconnect.
type Session struct {
	ID        string
	Provider  Provider
	Identity  string
	CreatedAt time.Time
	ExpiresAt time.Time

	Source   inboxdomain.MessageSource
	Pipeline *inboxusecase.Pipeline
	Replies  *inboxusecase.ReplyPipeline

	mu        sync.RWMutex
	authToken string
}

// AuthToken returns the token used to authorize sends
func (s *Session) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authToken
}

// SetAuthToken replaces the send token, e.g. after an OAuth refresh
func (s *Session) SetAuthToken(token string) {
	s.mu.Lock()
	s.authToken = token
	s.mu.Unlock()
}

// Close discards the accumulated set and releases the mailbox connection
func (s *Session) Close() error {
	if s.Pipeline != nil {
		s.Pipeline.Invalidate()
	}
	if closer, ok := s.Source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
