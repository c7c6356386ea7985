package usecase

import (
	"context"

	inboxdomain "email-insight-backend/internal/inbox/domain"
	"email-insight-backend/internal/session/domain"
	"email-insight-backend/internal/session/dto"
)

// SessionUsecase manages mailbox connections
type SessionUsecase interface {
	Connect(ctx context.Context, req *dto.ConnectRequest) (*dto.SessionResponse, error)
	Validate(token string) (*domain.Session, error)
	Disconnect(sessionID string) error
	// SessionsFor returns the live sessions of one mailbox identity
	SessionsFor(identity string) []*domain.Session
	// SweepExpired closes expired sessions and returns how many were removed
	SweepExpired() int
}

// MailboxConnector opens a message source with an access token and returns the
// mailbox identity. onTokenRefresh receives replacement access tokens.
type MailboxConnector interface {
	Connect(ctx context.Context, accessToken, refreshToken string, onTokenRefresh func(accessToken string)) (inboxdomain.MessageSource, string, error)
}
