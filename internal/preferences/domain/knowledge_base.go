package domain

import (
	"time"

	inboxdomain "email-insight-backend/internal/inbox/domain"
)

// KnowledgeBase holds a user's free-text guidance for classification and reply style
type KnowledgeBase struct {
	UserID         string    `json:"user_id" gorm:"primaryKey" firestore:"-"`
	Classification string    `json:"classification" gorm:"type:text" firestore:"classification"`
	Reply          string    `json:"reply" gorm:"type:text" firestore:"reply"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt,omitempty"`
}

func (KnowledgeBase) TableName() string {
	return "knowledge_bases"
}

// PreferenceSet returns the read-only snapshot handed to the pipelines
func (k *KnowledgeBase) PreferenceSet() inboxdomain.PreferenceSet {
	if k == nil {
		return inboxdomain.PreferenceSet{}
	}
	return inboxdomain.PreferenceSet{
		ClassificationGuidance: k.Classification,
		ReplyStyleGuidance:     k.Reply,
	}
}
