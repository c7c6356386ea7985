package usecase

import (
	"slices"

	"email-insight-backend/internal/inbox/domain"
)

// Filter keeps the items of one category. CategoryAll keeps every item.
// The result is a new slice in the original order.
func Filter(items []domain.MailboxItem, category domain.Category) []domain.MailboxItem {
	if category == domain.CategoryAll || category == "" {
		return slices.Clone(items)
	}
	out := make([]domain.MailboxItem, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// CountByGroup counts items per display group. Unknown categories are counted as "other".
func CountByGroup(items []domain.MailboxItem) map[string]int {
	counts := make(map[string]int, len(domain.KnownCategories)+1)
	for _, item := range items {
		counts[item.Category.DisplayGroup()]++
	}
	return counts
}
