package ops

import (
	"context"

	"github.com/hpungsan/repovault/internal/vault"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID int64 `json:"id"`
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
	Total   int   `json:"total"`
}

// Delete removes a bookmark by id. A missing id reports deleted=false, not an error.
func Delete(ctx context.Context, store *vault.Store, input DeleteInput) (*DeleteOutput, error) {
	deleted, err := store.Delete(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteOutput{
		Deleted: deleted,
		ID:      input.ID,
		Total:   store.Len(),
	}, nil
}
