package gateway

import (
	"context"
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/errors"
)

const badgerKeyPrefix = "collection:"

// Badger stores each collection under one key of an embedded badger database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database at path.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Badger's internal logging is noisy on stderr
	opts.SyncWrites = true // every Set is a user-visible save

	database, err := badger.Open(opts)
	if err != nil {
		return nil, errors.NewPersistence("open badger", err)
	}
	return &Badger{db: database}, nil
}

func (b *Badger) Get(ctx context.Context, name string) ([]bookmark.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, errors.NewPersistence("read collection", err)
	}

	var payload []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + name))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewPersistence("read collection", err)
	}

	records, err := decode(payload)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (b *Badger) Set(ctx context.Context, name string, records []bookmark.Record) error {
	if err := ctx.Err(); err != nil {
		return errors.NewPersistence("write collection", err)
	}
	payload, err := encode(records)
	if err != nil {
		return err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+name), payload)
	})
	if err != nil {
		return errors.NewPersistence("write collection", err)
	}
	return nil
}

func (b *Badger) Close() error { return b.db.Close() }
