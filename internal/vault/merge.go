package vault

import (
	"context"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/logger"
)

// ImportMerge parses raw as a JSON array of bookmarks and appends those whose
// url is not already stored, in payload order. The payload is rejected whole
// on any parse or validation failure. Within the payload the first occurrence
// of a url wins. The collection is saved even when nothing was added.
func (s *Store) ImportMerge(ctx context.Context, raw []byte) (added int, err error) {
	added, skipped, err := s.importMerge(ctx, raw)
	if err != nil {
		return 0, err
	}
	s.emit(ImportedEvent{Added: added, Skipped: skipped})
	return added, nil
}

func (s *Store) importMerge(ctx context.Context, raw []byte) (added, skipped int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return 0, 0, errors.NewUninitialized()
	}

	incoming, err := bookmark.DecodeCollection(raw)
	if err != nil {
		return 0, 0, err
	}

	urls := make(map[string]struct{}, len(s.records)+len(incoming))
	for _, r := range s.records {
		urls[r.URL] = struct{}{}
	}

	next := make([]bookmark.Record, len(s.records), len(s.records)+len(incoming))
	copy(next, s.records)
	for _, r := range incoming {
		if _, dup := urls[r.URL]; dup {
			skipped++
			continue
		}
		urls[r.URL] = struct{}{}
		next = append(next, r)
	}
	added = len(next) - len(s.records)

	if err := s.save(ctx, next); err != nil {
		return 0, 0, err
	}
	s.log.Debug("collection imported",
		logger.Int("added", added),
		logger.Int("skipped", skipped))
	return added, skipped, nil
}
