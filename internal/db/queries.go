package db

import (
	"context"
	"database/sql"
	stderrors "errors"
)

// GetCollection returns the stored JSON payload for a named collection.
// found is false when no row exists for name.
func GetCollection(ctx context.Context, db *sql.DB, name string) (payload string, found bool, err error) {
	row := db.QueryRowContext(ctx, `SELECT payload FROM collections WHERE name = ?`, name)
	if err := row.Scan(&payload); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return payload, true, nil
}

// PutCollection replaces the payload of a named collection, creating it if needed.
func PutCollection(ctx context.Context, db *sql.DB, name, payload string, updatedAt int64) error {
	query := `
		INSERT INTO collections (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, name, payload, updatedAt)
	return err
}

// CollectionUpdatedAt returns the last write time (unix ms) of a named collection.
func CollectionUpdatedAt(ctx context.Context, db *sql.DB, name string) (int64, bool, error) {
	var updatedAt int64
	row := db.QueryRowContext(ctx, `SELECT updated_at FROM collections WHERE name = ?`, name)
	if err := row.Scan(&updatedAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return updatedAt, true, nil
}
