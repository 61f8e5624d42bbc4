package vault

import (
	"cmp"
	"iter"
	"slices"
	"strings"

	"github.com/hpungsan/repovault/internal/bookmark"
)

// Query returns the records whose repo, owner or notes contain search
// (case-insensitive) and, when category is non-empty, whose category equals
// it exactly. The sequence iterates a snapshot taken at call time, in
// collection order, and can be ranged over any number of times.
func (s *Store) Query(search, category string) iter.Seq[bookmark.Record] {
	snapshot := s.snapshot()
	needle := strings.ToLower(search)

	return func(yield func(bookmark.Record) bool) {
		for _, r := range snapshot {
			if !matches(r, needle, category) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// List collects Query into a slice sorted newest first (id descending).
func (s *Store) List(search, category string) []bookmark.Record {
	out := slices.Collect(s.Query(search, category))
	if out == nil {
		out = []bookmark.Record{}
	}
	SortNewestFirst(out)
	return out
}

// Categories returns the distinct categories, ascending.
func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range s.snapshot() {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	slices.Sort(out)
	return out
}

// SortNewestFirst orders records by id descending, the canonical presentation order.
func SortNewestFirst(records []bookmark.Record) {
	slices.SortStableFunc(records, func(a, b bookmark.Record) int {
		return cmp.Compare(b.ID, a.ID)
	})
}

func matches(r bookmark.Record, needle, category string) bool {
	if category != "" && r.Category != category {
		return false
	}
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Repo), needle) ||
		strings.Contains(strings.ToLower(r.Owner), needle) ||
		strings.Contains(strings.ToLower(r.Notes), needle)
}

// snapshot copies the current collection under the lock.
func (s *Store) snapshot() []bookmark.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}
