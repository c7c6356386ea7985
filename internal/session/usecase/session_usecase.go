package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	inboxusecase "email-insight-backend/internal/inbox/usecase"
	"email-insight-backend/internal/session/domain"
	"email-insight-backend/internal/session/dto"
	"email-insight-backend/pkg/ai"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidToken        = errors.New("invalid or expired session token")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnsupportedProvider = errors.New("unsupported mailbox provider")
	ErrMailboxRejected     = errors.New("mailbox rejected the credentials")
)

// Config holds what every new session needs
type Config struct {
	JWTSecret string
	Expiry    time.Duration
	Pipeline  inboxusecase.PipelineConfig
	Reply     inboxusecase.ReplyConfig
}

// sessionUsecase implements SessionUsecase interface
type sessionUsecase struct {
	connectors map[domain.Provider]MailboxConnector
	enricher   ai.EnrichmentService
	config     Config
	logger     logrus.FieldLogger

	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewSessionUsecase creates a new instance of sessionUsecase. Providers without a
// connector are rejected on connect.
func NewSessionUsecase(connectors map[domain.Provider]MailboxConnector, enricher ai.EnrichmentService, cfg Config, logger logrus.FieldLogger) SessionUsecase {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	return &sessionUsecase{
		connectors: connectors,
		enricher:   enricher,
		config:     cfg,
		logger:     logger.WithField("component", "session"),
		sessions:   make(map[string]*domain.Session),
	}
}

func (u *sessionUsecase) Connect(ctx context.Context, req *dto.ConnectRequest) (*dto.SessionResponse, error) {
	u.SweepExpired()

	provider := domain.Provider(req.Provider)
	connector, ok := u.connectors[provider]
	if !ok || connector == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, req.Provider)
	}

	now := time.Now()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(u.config.Expiry),
	}
	sess.SetAuthToken(req.AccessToken)

	source, identity, err := connector.Connect(ctx, req.AccessToken, req.RefreshToken, sess.SetAuthToken)
	if err != nil {
		u.logger.WithError(err).WithField("provider", provider).Warn("mailbox connection failed")
		return nil, fmt.Errorf("%w: %v", ErrMailboxRejected, err)
	}

	sess.Identity = identity
	sess.Source = source
	sess.Pipeline = inboxusecase.NewPipeline(source, u.enricher, u.config.Pipeline, u.logger)
	sess.Replies = inboxusecase.NewReplyPipeline(source, u.enricher, u.config.Reply, u.logger)

	token, err := u.generateToken(sess)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}

	u.mu.Lock()
	u.sessions[sess.ID] = sess
	u.mu.Unlock()

	u.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"provider":   provider,
	}).Info("mailbox connected")

	return &dto.SessionResponse{
		Token:     token,
		SessionID: sess.ID,
		Provider:  string(provider),
		Identity:  identity,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

func (u *sessionUsecase) Validate(tokenString string) (*domain.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(u.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sessionID, ok := claims["sid"].(string)
	if !ok || sessionID == "" {
		return nil, ErrInvalidToken
	}

	u.mu.RLock()
	sess, ok := u.sessions[sessionID]
	u.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = u.Disconnect(sessionID)
		return nil, ErrInvalidToken
	}
	return sess, nil
}

// Disconnect discards the session's accumulated set and closes its mailbox
func (u *sessionUsecase) Disconnect(sessionID string) error {
	u.mu.Lock()
	sess, ok := u.sessions[sessionID]
	delete(u.sessions, sessionID)
	u.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if err := sess.Close(); err != nil {
		u.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to close mailbox")
	}
	u.logger.WithField("session_id", sessionID).Info("mailbox disconnected")
	return nil
}

func (u *sessionUsecase) SessionsFor(identity string) []*domain.Session {
	u.mu.RLock()
	defer u.mu.RUnlock()

	var out []*domain.Session
	for _, sess := range u.sessions {
		if sess.Identity == identity {
			out = append(out, sess)
		}
	}
	return out
}

func (u *sessionUsecase) SweepExpired() int {
	now := time.Now()

	u.mu.Lock()
	var expired []*domain.Session
	for id, sess := range u.sessions {
		if now.After(sess.ExpiresAt) {
			expired = append(expired, sess)
			delete(u.sessions, id)
		}
	}
	u.mu.Unlock()

	for _, sess := range expired {
		if err := sess.Close(); err != nil {
			u.logger.WithError(err).WithField("session_id", sess.ID).Warn("failed to close mailbox")
		}
	}
	if len(expired) > 0 {
		u.logger.WithField("sessions", len(expired)).Info("expired sessions removed")
	}
	return len(expired)
}

// RunSweeper removes expired sessions every interval until ctx is done
func RunSweeper(ctx context.Context, uc SessionUsecase, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.SweepExpired()
		}
	}
}

func (u *sessionUsecase) generateToken(sess *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": sess.ID,
		"sub": sess.Identity,
		"exp": sess.ExpiresAt.Unix(),
		"iat": sess.CreatedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}
