package ops

import (
	"context"
	"fmt"
	"io"

	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/vault"
)

// MaxImportBytes bounds the size of an import payload.
const MaxImportBytes = 16 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string `json:"path"` // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// Import merges bookmarks from a JSON export file.
func Import(ctx context.Context, store *vault.Store, cfg *config.Config, baseDir string, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidInput("path is required")
	}
	if err := ValidatePath(input.Path, PathCheckRead, ExportsDir(baseDir), cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.VaultError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	return ImportReader(ctx, store, file)
}

// ImportReader merges bookmarks from an arbitrary reader, such as an upload.
func ImportReader(ctx context.Context, store *vault.Store, r io.Reader) (*ImportOutput, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import payload: %w", err))
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewInvalidInput(fmt.Sprintf("import payload exceeds %d bytes", MaxImportBytes))
	}

	added, err := store.ImportMerge(ctx, data)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{
		Added: added,
		Total: store.Len(),
	}, nil
}
