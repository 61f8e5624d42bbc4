// Package gateway persists the bookmark collection as a single JSON value
// under a named key. Every backend does whole-list reads and writes.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/logger"
)

// Gateway is an asynchronous key-value store for named bookmark collections.
type Gateway interface {
	// Get returns the stored collection. found is false when name has never been written.
	Get(ctx context.Context, name string) (records []bookmark.Record, found bool, err error)

	// Set replaces the stored collection.
	Set(ctx context.Context, name string, records []bookmark.Record) error

	Close() error
}

// Open builds the backend selected by cfg.Backend rooted at baseDir.
func Open(ctx context.Context, cfg *config.Config, baseDir string, log logger.Logger) (Gateway, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}

	switch cfg.Backend {
	case config.BackendSQLite, "":
		gw, err := OpenSQLite(baseDir, cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("sqlite gateway opened", logger.String("dir", baseDir))
		return gw, nil
	case config.BackendBadger:
		gw, err := OpenBadger(filepath.Join(baseDir, "badger"))
		if err != nil {
			return nil, err
		}
		log.Debug("badger gateway opened", logger.String("dir", filepath.Join(baseDir, "badger")))
		return gw, nil
	case config.BackendRedis:
		return OpenRedis(ctx, cfg, log)
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, errors.NewInvalidInput(fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
}

func encode(records []bookmark.Record) ([]byte, error) {
	data, err := bookmark.EncodeCollection(records)
	if err != nil {
		return nil, errors.NewPersistence("encode collection", err)
	}
	return data, nil
}

// decode parses a stored payload. Stored data was written by encode, so it
// is not re-validated the way an import payload is.
func decode(payload []byte) ([]bookmark.Record, error) {
	var records []bookmark.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, errors.NewPersistence("decode collection", err)
	}
	if records == nil {
		records = []bookmark.Record{}
	}
	return records, nil
}
