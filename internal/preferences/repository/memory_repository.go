package repository

import (
	"context"
	"sync"

	"email-insight-backend/internal/preferences/domain"
)

type memoryKnowledgeBaseRepository struct {
	mu    sync.RWMutex
	bases map[string]domain.KnowledgeBase
}

// NewMemoryKnowledgeBaseRepository keeps knowledge bases in process memory
func NewMemoryKnowledgeBaseRepository() KnowledgeBaseRepository {
	return &memoryKnowledgeBaseRepository{bases: make(map[string]domain.KnowledgeBase)}
}

func (r *memoryKnowledgeBaseRepository) Get(ctx context.Context, userID string) (*domain.KnowledgeBase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kb, ok := r.bases[userID]
	if !ok {
		return &domain.KnowledgeBase{UserID: userID}, nil
	}
	return &kb, nil
}

func (r *memoryKnowledgeBaseRepository) Save(ctx context.Context, kb *domain.KnowledgeBase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bases[kb.UserID] = *kb
	return nil
}
