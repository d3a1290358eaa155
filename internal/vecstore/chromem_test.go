package vecstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

func newChromemStore(t *testing.T, dir string) *ChromemStore {
	t.Helper()
	db, err := NewChromemDB(dir)
	require.NoError(t, err)
	store, err := NewChromemStore(db, "testdocs")
	require.NoError(t, err)
	return store
}

func TestChromemStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := newChromemStore(t, t.TempDir())

	require.NoError(t, store.Upsert(ctx, []types.VectorDoc{
		{ID: "a", Text: "about cats", Embedding: []float32{1, 0}, Meta: map[string]string{"source": "a.txt"}},
		{ID: "b", Text: "about dogs", Embedding: []float32{0, 1}},
	}))
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 2, store.Dim())

	got, err := store.Query(ctx, []float32{1, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "about cats", got[0].Text)
	assert.Equal(t, "a.txt", got[0].Meta["source"])
}

func TestChromemStoreTopKClampedToCount(t *testing.T) {
	ctx := context.Background()
	store := newChromemStore(t, t.TempDir())
	require.NoError(t, store.Upsert(ctx, []types.VectorDoc{
		{ID: "a", Text: "t", Embedding: []float32{1, 0}},
	}))

	got, err := store.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestChromemStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newChromemStore(t, dir)
	require.NoError(t, first.Upsert(ctx, []types.VectorDoc{
		{ID: "a", Text: "kept", Embedding: []float32{1, 0}},
	}))

	second := newChromemStore(t, dir)
	assert.Equal(t, 1, second.Len())

	got, err := second.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Text)
}

func TestChromemStoreRejectsBadDocs(t *testing.T) {
	ctx := context.Background()
	store := newChromemStore(t, t.TempDir())
	require.NoError(t, store.Upsert(ctx, []types.VectorDoc{
		{ID: "a", Text: "t", Embedding: []float32{1, 0}},
	}))

	err := store.Upsert(ctx, []types.VectorDoc{{ID: "b", Embedding: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	err = store.Upsert(ctx, []types.VectorDoc{{ID: "", Embedding: []float32{1, 0}}})
	assert.ErrorIs(t, err, types.ErrEmptyID)
}

func TestChromemStoreClear(t *testing.T) {
	ctx := context.Background()
	store := newChromemStore(t, t.TempDir())
	require.NoError(t, store.Upsert(ctx, []types.VectorDoc{
		{ID: "a", Text: "t", Embedding: []float32{1, 0}},
	}))

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, store.Dim())
}
