package repository

import (
	"context"

	"email-insight-backend/internal/preferences/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const knowledgeBaseCollection = "knowledgeBases"

type firestoreKnowledgeBaseRepository struct {
	client *firestore.Client
}

// NewFirestoreKnowledgeBaseRepository stores knowledge bases as knowledgeBases/<userID> documents
func NewFirestoreKnowledgeBaseRepository(client *firestore.Client) KnowledgeBaseRepository {
	return &firestoreKnowledgeBaseRepository{client: client}
}

func (r *firestoreKnowledgeBaseRepository) Get(ctx context.Context, userID string) (*domain.KnowledgeBase, error) {
	snap, err := r.client.Collection(knowledgeBaseCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &domain.KnowledgeBase{UserID: userID}, nil
		}
		return nil, err
	}

	var kb domain.KnowledgeBase
	if err := snap.DataTo(&kb); err != nil {
		return nil, err
	}
	kb.UserID = userID
	return &kb, nil
}

func (r *firestoreKnowledgeBaseRepository) Save(ctx context.Context, kb *domain.KnowledgeBase) error {
	_, err := r.client.Collection(knowledgeBaseCollection).Doc(kb.UserID).Set(ctx, map[string]interface{}{
		"classification": kb.Classification,
		"reply":          kb.Reply,
		"updatedAt":      kb.UpdatedAt,
	}, firestore.MergeAll)
	return err
}
