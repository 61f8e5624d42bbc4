package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/gateway"
	"github.com/hpungsan/repovault/internal/vault"
)

func newTestStore(t *testing.T) (*vault.Store, *gateway.Memory) {
	t.Helper()
	gw := gateway.NewMemory()
	store := vault.New(gw)
	require.NoError(t, store.Load(context.Background()))
	return store, gw
}

func addAll(t *testing.T, store *vault.Store, urls ...string) {
	t.Helper()
	for _, u := range urls {
		_, err := Add(context.Background(), store, AddInput{URL: u})
		require.NoError(t, err)
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 1712345678901 ")
	require.NoError(t, err)
	require.Equal(t, int64(1712345678901), id)

	for _, raw := range []string{"", "abc", "1.5"} {
		_, err := ParseID(raw)
		require.True(t, errors.Is(err, errors.ErrInvalidInput), "ParseID(%q) = %v", raw, err)
	}
}

func TestAdd(t *testing.T) {
	store, _ := newTestStore(t)

	out, err := Add(context.Background(), store, AddInput{
		URL:      "https://github.com/golang/go",
		Category: "lang",
		Notes:    "core",
	})
	require.NoError(t, err)
	require.Equal(t, "golang", out.Bookmark.Owner)
	require.Equal(t, "lang", out.Bookmark.Category)
	require.Equal(t, 1, out.Total)

	_, err = Add(context.Background(), store, AddInput{URL: "github.com/golang/go"})
	require.True(t, errors.Is(err, errors.ErrDuplicateEntry), "err = %v", err)
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	out, err := Add(context.Background(), store, AddInput{URL: "github.com/a/b"})
	require.NoError(t, err)

	del, err := Delete(context.Background(), store, DeleteInput{ID: out.Bookmark.ID})
	require.NoError(t, err)
	require.True(t, del.Deleted)
	require.Equal(t, 0, del.Total)

	del, err = Delete(context.Background(), store, DeleteInput{ID: out.Bookmark.ID})
	require.NoError(t, err)
	require.False(t, del.Deleted)
}

func TestClear_RequiresConfirm(t *testing.T) {
	store, _ := newTestStore(t)
	addAll(t, store, "github.com/a/a", "github.com/b/b")

	_, err := Clear(context.Background(), store, ClearInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidInput), "err = %v", err)
	require.Equal(t, 2, store.Len())

	out, err := Clear(context.Background(), store, ClearInput{Confirm: true})
	require.NoError(t, err)
	require.Equal(t, 2, out.Removed)
	require.Equal(t, 0, store.Len())
}

func TestList_Pagination(t *testing.T) {
	store, _ := newTestStore(t)
	addAll(t, store, "github.com/a/a", "github.com/b/b", "github.com/c/c", "github.com/d/d", "github.com/e/e")

	out, err := List(store, ListInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	require.Equal(t, "e", out.Items[0].Repo, "newest first")
	require.Equal(t, Pagination{Limit: 2, Offset: 0, HasMore: true, Total: 5}, out.Pagination)
	require.Equal(t, "id_desc", out.Sort)

	out, err = List(store, ListInput{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	require.False(t, out.Pagination.HasMore)

	out, err = List(store, ListInput{Offset: 99})
	require.NoError(t, err)
	require.NotNil(t, out.Items)
	require.Empty(t, out.Items)
	require.Equal(t, DefaultListLimit, out.Pagination.Limit)

	out, err = List(store, ListInput{Limit: MaxListLimit + 1, Offset: -3})
	require.NoError(t, err)
	require.Equal(t, MaxListLimit, out.Pagination.Limit)
	require.Equal(t, 0, out.Pagination.Offset)
}

func TestList_Filters(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, err := Add(ctx, store, AddInput{URL: "github.com/golang/go", Category: "infra"})
	require.NoError(t, err)
	_, err = Add(ctx, store, AddInput{URL: "github.com/someone/go", Category: "tools"})
	require.NoError(t, err)

	out, err := List(store, ListInput{Search: "go", Category: "infra"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	require.Equal(t, "golang", out.Items[0].Owner)
}

func TestCategories(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, err := Add(ctx, store, AddInput{URL: "github.com/a/a", Category: "infra"})
	require.NoError(t, err)
	_, err = Add(ctx, store, AddInput{URL: "github.com/b/b"})
	require.NoError(t, err)

	require.Equal(t, []string{"infra", "uncategorized"}, Categories(store).Categories)
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t)

	resp, err := HandleMessage(ctx, gw, store.CollectionName(), Message{Action: ActionGetBookmarkCount})
	require.NoError(t, err)
	require.Equal(t, 0, resp.Count)

	addAll(t, store, "github.com/a/a", "github.com/b/b")
	resp, err = HandleMessage(ctx, gw, store.CollectionName(), Message{Action: ActionGetBookmarkCount})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)

	// A different collection name has nothing persisted.
	resp, err = HandleMessage(ctx, gw, "other", Message{Action: ActionGetBookmarkCount})
	require.NoError(t, err)
	require.Equal(t, 0, resp.Count)

	_, err = HandleMessage(ctx, gw, store.CollectionName(), Message{Action: "getStars"})
	require.True(t, errors.Is(err, errors.ErrInvalidInput), "err = %v", err)
}

func TestHandleMessage_ReadsPersistedNotMemory(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()

	// A store that never loaded holds nothing in memory; the count still comes from storage.
	writer := vault.New(gw)
	require.NoError(t, writer.Load(ctx))
	addAll(t, writer, "github.com/a/a")

	resp, err := HandleMessage(ctx, gw, "bookmarks", Message{Action: ActionGetBookmarkCount})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
}

func TestHandleMessage_GatewayFailure(t *testing.T) {
	gw := gateway.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := HandleMessage(ctx, gw, "bookmarks", Message{Action: ActionGetBookmarkCount})
	require.True(t, errors.Is(err, errors.ErrPersistence), "err = %v", err)
}
