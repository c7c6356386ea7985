package dto

import (
	"time"

	inboxdto "email-insight-backend/internal/inbox/dto"
)

type UpdateGuidanceRequest struct {
	Guidance string `json:"guidance"`
}

type PreferencesResponse struct {
	Classification string    `json:"classification"`
	Reply          string    `json:"reply"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// ClassificationUpdateResponse carries the refreshed set when the guidance changed
type ClassificationUpdateResponse struct {
	PreferencesResponse
	Refreshed bool                    `json:"refreshed"`
	Inbox     *inboxdto.ItemsResponse `json:"inbox,omitempty"`
}
