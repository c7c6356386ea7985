package repository

import (
	"context"

	"email-insight-backend/internal/preferences/domain"
)

// KnowledgeBaseRepository stores preferences keyed by user identity.
// Get never fails for a missing record; it returns an empty knowledge base instead.
type KnowledgeBaseRepository interface {
	Get(ctx context.Context, userID string) (*domain.KnowledgeBase, error)
	Save(ctx context.Context, kb *domain.KnowledgeBase) error
}
