package ops

import (
	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/vault"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`  // default: 50, max: 500
	Offset   int    `json:"offset,omitempty"` // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []bookmark.Record `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Sort       string            `json:"sort"`
}

// List returns matching bookmarks newest first with pagination.
func List(store *vault.Store, input ListInput) (*ListOutput, error) {
	limit := clampLimit(input.Limit)
	offset := max(input.Offset, 0)

	all := store.List(input.Search, input.Category)
	total := len(all)

	start := min(offset, total)
	end := min(start+limit, total)
	items := all[start:end]

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: end < total,
			Total:   total,
		},
		Sort: "id_desc",
	}, nil
}
