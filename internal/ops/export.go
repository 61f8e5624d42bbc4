package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/vault"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string `json:"path,omitempty"` // optional, default: <base>/exports/repovault-backup-<unix-ms>.json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// BackupFilename returns the download name for an export taken at now.
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("repovault-backup-%d%s", now.UnixMilli(), ExportExtension)
}

// Export writes the full collection to a JSON file.
// The file is written to a temp name and renamed into place, so an existing
// file is preserved if anything fails.
func Export(ctx context.Context, store *vault.Store, cfg *config.Config, baseDir string, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportsDir := ExportsDir(baseDir)

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(exportsDir, BackupFilename(now))
	}

	if err := ValidatePath(exportPath, PathCheckWrite, exportsDir, cfg); err != nil {
		return nil, err
	}

	data, count, err := store.ExportCount()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	tempPath := tempExportPath(exportPath)
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted since validation.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidInput("export path is a symlink")
	}

	// On Windows os.Rename fails if the destination exists; keep the old file
	// rather than doing a non-atomic delete and rename.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidInput("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: now.UnixMilli(),
	}, nil
}

// tempExportPath returns a unique sibling of exportPath for the atomic write.
func tempExportPath(exportPath string) string {
	return exportPath + "." + strings.ToLower(ulid.Make().String()) + ".tmp"
}
