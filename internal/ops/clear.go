package ops

import (
	"context"

	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/vault"
)

// ClearInput contains parameters for the Clear operation.
type ClearInput struct {
	// Confirm must be true; the store itself never asks.
	Confirm bool `json:"confirm"`
}

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Removed int `json:"removed"`
}

// Clear deletes every bookmark once the caller has confirmed.
func Clear(ctx context.Context, store *vault.Store, input ClearInput) (*ClearOutput, error) {
	if !input.Confirm {
		return nil, errors.NewInvalidInput("clear requires confirm: true")
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return &ClearOutput{Removed: removed}, nil
}
