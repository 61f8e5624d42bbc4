package gateway

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/db"
	"github.com/hpungsan/repovault/internal/errors"
)

// SQLite stores each collection as one row of the collections table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite initializes baseDir/repovault.db and applies pool settings from cfg.
func OpenSQLite(baseDir string, cfg *config.Config) (*SQLite, error) {
	database, err := db.Init(baseDir)
	if err != nil {
		return nil, errors.NewPersistence("open sqlite", err)
	}
	db.ConfigurePool(database, cfg)
	return NewSQLite(database), nil
}

// NewSQLite wraps an already initialized database.
func NewSQLite(database *sql.DB) *SQLite {
	return &SQLite{db: database, now: time.Now}
}

func (s *SQLite) Get(ctx context.Context, name string) ([]bookmark.Record, bool, error) {
	payload, found, err := db.GetCollection(ctx, s.db, name)
	if err != nil {
		return nil, false, errors.NewPersistence("read collection", err)
	}
	if !found {
		return nil, false, nil
	}
	records, err := decode([]byte(payload))
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (s *SQLite) Set(ctx context.Context, name string, records []bookmark.Record) error {
	payload, err := encode(records)
	if err != nil {
		return err
	}
	if err := db.PutCollection(ctx, s.db, name, string(payload), s.now().UnixMilli()); err != nil {
		return errors.NewPersistence("write collection", err)
	}
	return nil
}

// DB exposes the underlying handle for maintenance commands.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Close() error { return s.db.Close() }
