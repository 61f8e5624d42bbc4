package vault

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/repovault/internal/gateway"
)

func TestEvents_EmittedAfterSave(t *testing.T) {
	ctx := context.Background()
	var kinds []EventKind
	record := func(e Event) error {
		kinds = append(kinds, e.Kind())
		return nil
	}

	s := New(gateway.NewMemory(),
		WithListener(OnAdded, record),
		WithListener(OnDeleted, record),
		WithListener(OnCleared, record),
		WithListener(OnImported, record),
	)
	require.NoError(t, s.Load(ctx))

	a, err := s.Add(ctx, "github.com/a/a", "", "")
	require.NoError(t, err)
	_, err = s.Delete(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.ImportMerge(ctx, []byte(`[]`))
	require.NoError(t, err)
	_, err = s.Clear(ctx)
	require.NoError(t, err)

	require.Equal(t, []EventKind{OnAdded, OnDeleted, OnImported, OnCleared}, kinds)
}

func TestEvents_Payloads(t *testing.T) {
	ctx := context.Background()
	s, _ := newLoadedStore(t)

	var added AddedEvent
	var deleted DeletedEvent
	var imported ImportedEvent
	var cleared ClearedEvent
	s.Subscribe(OnAdded, func(e Event) error { added = e.(AddedEvent); return nil })
	s.Subscribe(OnDeleted, func(e Event) error { deleted = e.(DeletedEvent); return nil })
	s.Subscribe(OnImported, func(e Event) error { imported = e.(ImportedEvent); return nil })
	s.Subscribe(OnCleared, func(e Event) error { cleared = e.(ClearedEvent); return nil })

	r, err := s.Add(ctx, "github.com/golang/go", "", "")
	require.NoError(t, err)
	require.Equal(t, r, added.Record)

	_, err = s.Delete(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, DeletedEvent{ID: 1, Removed: false}, deleted)

	_, err = s.ImportMerge(ctx, []byte(`[
		{"owner":"golang","repo":"go","url":"https://github.com/golang/go"},
		{"owner":"a","repo":"b","url":"https://github.com/a/b"}
	]`))
	require.NoError(t, err)
	require.Equal(t, ImportedEvent{Added: 1, Skipped: 1}, imported)

	_, err = s.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, ClearedEvent{Removed: 2}, cleared)
}

func TestEvents_NotEmittedOnFailure(t *testing.T) {
	ctx := context.Background()
	s, gw := newLoadedStore(t)

	fired := false
	s.Subscribe(OnAdded, func(Event) error { fired = true; return nil })

	gw.failSet = true
	_, err := s.Add(ctx, "github.com/a/a", "", "")
	require.Error(t, err)

	_, err = s.Add(ctx, "not-a-url", "", "")
	require.Error(t, err)

	require.False(t, fired)
}

func TestEvents_ListenerMayReenterAndErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	s, _ := newLoadedStore(t)

	var seen int
	s.Subscribe(OnAdded, func(Event) error {
		seen = s.Len()
		return stderrors.New("listener failed")
	})

	_, err := s.Add(ctx, "github.com/a/a", "", "")
	require.NoError(t, err)
	require.Equal(t, 1, seen)
}

func TestEventKind_String(t *testing.T) {
	require.Equal(t, "bookmark_added", OnAdded.String())
	require.Equal(t, "bookmark_deleted", OnDeleted.String())
	require.Equal(t, "bookmarks_cleared", OnCleared.String())
	require.Equal(t, "bookmarks_imported", OnImported.String())
	require.Equal(t, "unknown", EventKind(99).String())
}
