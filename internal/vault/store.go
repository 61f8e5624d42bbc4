// Package vault holds the authoritative in-memory bookmark collection and
// mediates every mutation through a save-after-mutate discipline.
package vault

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/gateway"
	"github.com/hpungsan/repovault/internal/logger"
)

// Store is the bookmark collection bound to one gateway key.
//
// A Store starts uninitialized; Load moves it to loaded. Mutations hold the
// lock across the gateway write and replace the in-memory collection only
// after the write succeeds, so a failed save leaves state untouched.
type Store struct {
	mu      sync.Mutex
	gw      gateway.Gateway
	name    string
	now     func() time.Time
	log     logger.Logger
	loaded  bool
	records []bookmark.Record

	listenersMu sync.RWMutex
	listeners   map[EventKind][]EventListener
}

// Option configures a Store.
type Option func(*Store)

// WithCollectionName sets the gateway key. Blank names are ignored.
func WithCollectionName(name string) Option {
	return func(s *Store) {
		if name = strings.TrimSpace(name); name != "" {
			s.name = name
		}
	}
}

// WithClock overrides the time source used for ids and savedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger. Mutations are logged at debug level.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithListener registers an event listener at construction time.
func WithListener(kind EventKind, listener EventListener) Option {
	return func(s *Store) {
		s.Subscribe(kind, listener)
	}
}

// New creates an uninitialized store over gw.
func New(gw gateway.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:   gw,
		name: config.DefaultCollectionName,
		now:  time.Now,
		log:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CollectionName returns the gateway key this store reads and writes.
func (s *Store) CollectionName() string {
	return s.name
}

// Loaded reports whether Load has succeeded at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Load reads the full collection from the gateway. An absent key yields an
// empty collection. Calling Load again re-reads and replaces the collection.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, found, err := s.gw.Get(ctx, s.name)
	if err != nil {
		return persistenceError("load collection", err)
	}
	if !found || records == nil {
		records = []bookmark.Record{}
	}

	s.records = records
	s.loaded = true
	s.log.Debug("collection loaded",
		logger.String("collection", s.name),
		logger.Int("count", len(records)))
	return nil
}

// Add parses rawURL, rejects an existing owner/repo, appends the new record and saves.
func (s *Store) Add(ctx context.Context, rawURL, category, notes string) (bookmark.Record, error) {
	rec, err := s.add(ctx, rawURL, category, notes)
	if err != nil {
		return bookmark.Record{}, err
	}
	s.emit(AddedEvent{Record: rec})
	return rec, nil
}

func (s *Store) add(ctx context.Context, rawURL, category, notes string) (bookmark.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return bookmark.Record{}, errors.NewUninitialized()
	}

	owner, repo, err := bookmark.ParseGitHubURL(rawURL)
	if err != nil {
		return bookmark.Record{}, err
	}

	for _, r := range s.records {
		if r.Owner == owner && r.Repo == repo {
			return bookmark.Record{}, errors.NewDuplicateEntry(owner, repo)
		}
	}

	now := s.now()
	rec := bookmark.New(s.nextID(now), owner, repo, strings.TrimSpace(category), strings.TrimSpace(notes), now)

	next := make([]bookmark.Record, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, rec)

	if err := s.save(ctx, next); err != nil {
		return bookmark.Record{}, err
	}
	s.log.Debug("bookmark added",
		logger.Int64("id", rec.ID),
		logger.String("repo", rec.FullName()))
	return rec, nil
}

// nextID returns the creation time in milliseconds, bumped past the largest
// existing id so rapid successive adds never collide.
func (s *Store) nextID(now time.Time) int64 {
	id := int64(ulid.Timestamp(now))
	for _, r := range s.records {
		if r.ID >= id {
			id = r.ID + 1
		}
	}
	return id
}

// Delete removes the record with id. An absent id is not an error; the
// unchanged collection is still saved. deleted reports whether a record matched.
func (s *Store) Delete(ctx context.Context, id int64) (deleted bool, err error) {
	deleted, err = s.delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.emit(DeletedEvent{ID: id, Removed: deleted})
	return deleted, nil
}

func (s *Store) delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return false, errors.NewUninitialized()
	}

	next := make([]bookmark.Record, 0, len(s.records))
	for _, r := range s.records {
		if r.ID != id {
			next = append(next, r)
		}
	}
	deleted := len(next) != len(s.records)

	if err := s.save(ctx, next); err != nil {
		return false, err
	}
	s.log.Debug("bookmark delete",
		logger.Int64("id", id),
		logger.Bool("removed", deleted))
	return deleted, nil
}

// Clear empties the collection unconditionally and saves.
// Confirmation is the caller's responsibility.
func (s *Store) Clear(ctx context.Context) (removed int, err error) {
	removed, err = s.clear(ctx)
	if err != nil {
		return 0, err
	}
	s.emit(ClearedEvent{Removed: removed})
	return removed, nil
}

func (s *Store) clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return 0, errors.NewUninitialized()
	}

	removed := len(s.records)
	if err := s.save(ctx, []bookmark.Record{}); err != nil {
		return 0, err
	}
	s.log.Debug("collection cleared", logger.Int("removed", removed))
	return removed, nil
}

// Export serializes the full collection as 2-space indented JSON.
func (s *Store) Export() ([]byte, error) {
	data, _, err := s.ExportCount()
	return data, err
}

// ExportCount is Export plus the number of records serialized, taken from
// the same snapshot.
func (s *Store) ExportCount() (data []byte, count int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, 0, errors.NewUninitialized()
	}
	data, err = bookmark.EncodeCollection(s.records)
	if err != nil {
		return nil, 0, err
	}
	return data, len(s.records), nil
}

// Len returns the number of records in memory. Zero before Load.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// save writes next through the gateway and adopts it as the in-memory
// collection only on success. Caller must hold s.mu.
func (s *Store) save(ctx context.Context, next []bookmark.Record) error {
	if err := s.gw.Set(ctx, s.name, next); err != nil {
		return persistenceError("save collection", err)
	}
	s.records = next
	return nil
}

// persistenceError keeps classified gateway errors and wraps anything else.
func persistenceError(op string, err error) error {
	if errors.Is(err, errors.ErrPersistence) {
		return err
	}
	return errors.NewPersistence(op, err)
}
