package dto

import (
	"time"

	"email-insight-backend/internal/inbox/domain"
	"email-insight-backend/internal/inbox/usecase"
)

const receivedAtDisplayLayout = "Jan 2, 2006, 3:04 PM"

type ItemResponse struct {
	ID                string    `json:"id"`
	ThreadHeaderID    string    `json:"thread_header_id,omitempty"`
	Sender            string    `json:"sender"`
	SenderName        string    `json:"sender_name"`
	Subject           string    `json:"subject"`
	ReceivedAt        time.Time `json:"received_at"`
	ReceivedAtDisplay string    `json:"received_at_display"`
	Summary           string    `json:"summary"`
	Category          string    `json:"category"`
	CategoryKnown     bool      `json:"category_known"`
	CategoryGroup     string    `json:"category_group"`
	Replied           bool      `json:"replied"`
}

type CursorResponse struct {
	HasMore   bool `json:"has_more"`
	Exhausted bool `json:"exhausted"`
}

type ItemsResponse struct {
	Items  []ItemResponse `json:"items"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
	CursorResponse
}

type LoadMoreResponse struct {
	Appended []ItemResponse `json:"appended"`
	ItemsResponse
}

type DraftRequest struct {
	Instruction string `json:"instruction"`
}

type DraftResponse struct {
	Draft string `json:"draft"`
}

type SendRequest struct {
	Draft string `json:"draft"`
}

type SendResponse struct {
	Result string `json:"result"`
}

// NewItemResponse formats an item for display. replied reports whether a reply was
// already sent for it in this session.
func NewItemResponse(item domain.MailboxItem, replied bool) ItemResponse {
	resp := ItemResponse{
		ID:             item.ID,
		ThreadHeaderID: item.ThreadHeaderID,
		Sender:         item.Sender,
		SenderName:     item.SenderName(),
		Subject:        item.Subject,
		ReceivedAt:     item.ReceivedAt,
		Summary:        item.Summary,
		Category:       string(item.Category),
		CategoryKnown:  item.Category.IsKnown(),
		CategoryGroup:  item.Category.DisplayGroup(),
		Replied:        replied,
	}
	if !item.ReceivedAt.IsZero() {
		resp.ReceivedAtDisplay = item.ReceivedAt.Format(receivedAtDisplayLayout)
	}
	return resp
}

func NewItemResponses(items []domain.MailboxItem, replied func(id string) bool) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewItemResponse(item, replied != nil && replied(item.ID)))
	}
	return out
}

func NewCursorResponse(cursor domain.PageCursor) CursorResponse {
	return CursorResponse{
		HasMore:   cursor.HasMore(),
		Exhausted: cursor.IsExhausted(),
	}
}

// NewItemsResponse renders the filtered items while counting over the whole set
func NewItemsResponse(snapshot *usecase.Snapshot, category domain.Category, replied func(id string) bool) ItemsResponse {
	filtered := usecase.Filter(snapshot.Items, category)
	return ItemsResponse{
		Items:          NewItemResponses(filtered, replied),
		Counts:         usecase.CountByGroup(snapshot.Items),
		Total:          len(snapshot.Items),
		CursorResponse: NewCursorResponse(snapshot.Cursor),
	}
}
