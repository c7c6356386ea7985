package repository

import (
	"context"
	"errors"

	"email-insight-backend/internal/preferences/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// knowledgeBaseRepository implements KnowledgeBaseRepository on postgres
type knowledgeBaseRepository struct {
	db *gorm.DB
}

// NewKnowledgeBaseRepository creates a new instance of knowledgeBaseRepository
func NewKnowledgeBaseRepository(db *gorm.DB) KnowledgeBaseRepository {
	return &knowledgeBaseRepository{
		db: db,
	}
}

func (r *knowledgeBaseRepository) Get(ctx context.Context, userID string) (*domain.KnowledgeBase, error) {
	var kb domain.KnowledgeBase
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&kb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.KnowledgeBase{UserID: userID}, nil
		}
		return nil, err
	}
	return &kb, nil
}

// Save upserts the knowledge base (INSERT ... ON CONFLICT (user_id) DO UPDATE)
func (r *knowledgeBaseRepository) Save(ctx context.Context, kb *domain.KnowledgeBase) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"classification", "reply", "updated_at"}),
	}).Create(kb).Error
}
