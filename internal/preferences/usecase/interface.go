package usecase

import (
	"context"

	"email-insight-backend/internal/preferences/domain"
)

// PreferencesUsecase reads and writes a user's knowledge bases
type PreferencesUsecase interface {
	Get(ctx context.Context, userID string) (*domain.KnowledgeBase, error)
	// UpdateClassification stores new classification guidance and reports whether it changed.
	UpdateClassification(ctx context.Context, userID, guidance string) (*domain.KnowledgeBase, bool, error)
	UpdateReply(ctx context.Context, userID, guidance string) (*domain.KnowledgeBase, error)
}
