package domain

import (
	"strings"
	"time"
)

// Category is the classification assigned to a message by the enrichment service.
// Values outside the known set are kept as-is and grouped as "other" for display.
type Category string

const (
	CategoryVeryImportant Category = "Very Important"
	CategoryImportant     Category = "Important"
	CategoryNonImportant  Category = "Non-Important"
	CategoryPromotions    Category = "Promotions"
	CategorySpam          Category = "Spam"

	// CategoryAll is the filter value that keeps every item. It is never assigned to an item.
	CategoryAll Category = "All"

	categoryOther = "other"
)

// KnownCategories lists the closed enumeration in display order
var KnownCategories = []Category{
	CategoryVeryImportant,
	CategoryImportant,
	CategoryNonImportant,
	CategoryPromotions,
	CategorySpam,
}

// ParseCategory normalizes a category string returned by the enrichment service.
// Spelling variants such as "very_important", "VeryImportant" or "non important"
// map onto the canonical value. Unrecognized values are returned trimmed but otherwise untouched.
func ParseCategory(raw string) Category {
	trimmed := strings.TrimSpace(raw)
	key := categoryKey(trimmed)
	for _, c := range KnownCategories {
		if categoryKey(string(c)) == key {
			return c
		}
	}
	if key == categoryKey(string(CategoryAll)) {
		return CategoryAll
	}
	return Category(trimmed)
}

func categoryKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == ' ' || r == '-' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsKnown reports whether c belongs to the closed enumeration
func (c Category) IsKnown() bool {
	for _, k := range KnownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// DisplayGroup returns the category itself for known values and "other" otherwise.
func (c Category) DisplayGroup() string {
	if c.IsKnown() {
		return string(c)
	}
	return categoryOther
}

// MailboxItem is one unread message together with its enrichment result.
// Summary and Category are always set together; an item is never partially enriched.
type MailboxItem struct {
	ID             string    `json:"id"`
	ThreadHeaderID string    `json:"thread_header_id"`
	Sender         string    `json:"sender"`
	Subject        string    `json:"subject"`
	ReceivedAt     time.Time `json:"received_at"`
	Snippet        string    `json:"-"`
	Summary        string    `json:"summary"`
	Category       Category  `json:"category"`
}

// SenderName returns the display part of "Name <addr>" senders
func (m MailboxItem) SenderName() string {
	if idx := strings.Index(m.Sender, "<"); idx > 0 {
		return strings.TrimSpace(strings.Trim(strings.TrimSpace(m.Sender[:idx]), `"`))
	}
	return m.Sender
}

// PreferenceSet is a read-only snapshot of the user's free-text guidance.
type PreferenceSet struct {
	ClassificationGuidance string `json:"classification"`
	ReplyStyleGuidance     string `json:"reply"`
}
