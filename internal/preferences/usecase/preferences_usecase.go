package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"email-insight-backend/internal/preferences/domain"
	"email-insight-backend/internal/preferences/repository"

	"github.com/sirupsen/logrus"
)

// ErrMissingUser is returned when no user identity is given
var ErrMissingUser = errors.New("user identity is required")

type preferencesUsecase struct {
	repo   repository.KnowledgeBaseRepository
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewPreferencesUsecase creates a new instance of preferencesUsecase
func NewPreferencesUsecase(repo repository.KnowledgeBaseRepository, logger logrus.FieldLogger) PreferencesUsecase {
	return &preferencesUsecase{
		repo:   repo,
		logger: logger.WithField("component", "preferences"),
		now:    time.Now,
	}
}

func (u *preferencesUsecase) Get(ctx context.Context, userID string) (*domain.KnowledgeBase, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	kb, err := u.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return kb, nil
}

func (u *preferencesUsecase) UpdateClassification(ctx context.Context, userID, guidance string) (*domain.KnowledgeBase, bool, error) {
	kb, err := u.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	guidance = strings.TrimSpace(guidance)
	if kb.Classification == guidance {
		return kb, false, nil
	}

	kb.Classification = guidance
	kb.UpdatedAt = u.now()
	if err := u.repo.Save(ctx, kb); err != nil {
		return nil, false, fmt.Errorf("failed to save preferences: %w", err)
	}

	u.logger.WithField("user", userID).Info("classification guidance updated")
	return kb, true, nil
}

func (u *preferencesUsecase) UpdateReply(ctx context.Context, userID, guidance string) (*domain.KnowledgeBase, error) {
	kb, err := u.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	guidance = strings.TrimSpace(guidance)
	if kb.Reply == guidance {
		return kb, nil
	}

	kb.Reply = guidance
	kb.UpdatedAt = u.now()
	if err := u.repo.Save(ctx, kb); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	u.logger.WithField("user", userID).Info("reply guidance updated")
	return kb, nil
}
