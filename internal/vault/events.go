package vault

import (
	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/logger"
)

// Event is the common interface for all store events.
type Event interface {
	Kind() EventKind
}

// EventKind identifies the mutation that produced an event.
type EventKind int

const (
	// OnAdded is emitted after a bookmark is added and saved.
	OnAdded EventKind = iota
	// OnDeleted is emitted after a delete is saved, whether or not a record was removed.
	OnDeleted
	// OnCleared is emitted after the collection is emptied and saved.
	OnCleared
	// OnImported is emitted after a merge-import is saved.
	OnImported
)

func (k EventKind) String() string {
	switch k {
	case OnAdded:
		return "bookmark_added"
	case OnDeleted:
		return "bookmark_deleted"
	case OnCleared:
		return "bookmarks_cleared"
	case OnImported:
		return "bookmarks_imported"
	default:
		return "unknown"
	}
}

// AddedEvent carries the newly stored record.
type AddedEvent struct {
	Record bookmark.Record
}

func (e AddedEvent) Kind() EventKind { return OnAdded }

// DeletedEvent reports the requested id and whether a record matched.
type DeletedEvent struct {
	ID      int64
	Removed bool
}

func (e DeletedEvent) Kind() EventKind { return OnDeleted }

// ClearedEvent reports how many records were removed.
type ClearedEvent struct {
	Removed int
}

func (e ClearedEvent) Kind() EventKind { return OnCleared }

// ImportedEvent reports how many payload records were appended and skipped.
type ImportedEvent struct {
	Added   int
	Skipped int
}

func (e ImportedEvent) Kind() EventKind { return OnImported }

// EventListener handles events of one kind.
type EventListener func(event Event) error

// Subscribe adds a listener for an event kind.
// Listeners run synchronously in registration order after the save succeeds,
// outside the store lock, so they may call back into the store.
func (s *Store) Subscribe(kind EventKind, listener EventListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[EventKind][]EventListener)
	}
	s.listeners[kind] = append(s.listeners[kind], listener)
}

// emit dispatches an event to its listeners. Listener errors are logged, never returned.
func (s *Store) emit(event Event) {
	s.listenersMu.RLock()
	listeners := append([]EventListener(nil), s.listeners[event.Kind()]...)
	s.listenersMu.RUnlock()

	for _, listener := range listeners {
		if err := listener(event); err != nil {
			s.log.Warn("event listener failed",
				logger.String("event", event.Kind().String()),
				logger.Error(err))
		}
	}
}
