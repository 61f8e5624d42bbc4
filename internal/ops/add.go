package ops

import (
	"context"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/vault"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	Bookmark bookmark.Record `json:"bookmark"`
	Total    int             `json:"total"`
}

// Add bookmarks a GitHub repository.
func Add(ctx context.Context, store *vault.Store, input AddInput) (*AddOutput, error) {
	rec, err := store.Add(ctx, input.URL, input.Category, input.Notes)
	if err != nil {
		return nil, err
	}
	return &AddOutput{
		Bookmark: rec,
		Total:    store.Len(),
	}, nil
}
