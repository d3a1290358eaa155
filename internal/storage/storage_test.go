package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

func TestVectorRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{name: "empty", vector: []float32{}},
		{name: "single", vector: []float32{1.5}},
		{name: "mixed", vector: []float32{0, -1.25, 3.5, 1e-8, -1e30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := serializeVector(tt.vector)
			got, err := deserializeVector(blob, len(tt.vector))
			require.NoError(t, err)
			assert.Equal(t, tt.vector, got)
		})
	}
}

func TestDeserializeVectorCorrupt(t *testing.T) {
	_, err := deserializeVector([]byte{1, 2, 3}, 1)
	assert.ErrorIs(t, err, ErrCorruptEntry)

	// Dimension disagreement with the stored header is also corruption.
	blob := serializeVector([]float32{1, 2})
	_, err = deserializeVector(blob, 3)
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestValidateItems(t *testing.T) {
	items := []Item{
		{Key: "a", Vector: []float32{1, 2}},
		{Key: "b", Vector: []float32{3}},
	}
	err := validateItems(items, 2)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	assert.NoError(t, validateItems(items[:1], 2))
}

// cacheStoreContract exercises the CacheStore behavior shared by all
// backends.
func cacheStoreContract(t *testing.T, store CacheStore) {
	t.Helper()
	ctx := context.Background()

	// Empty lookup
	got, err := store.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Misses are simply absent
	got, err = store.GetMany(ctx, []string{"missing"})
	require.NoError(t, err)
	assert.Empty(t, got)

	// Write and read back
	items := []Item{
		{Key: "k1", Vector: []float32{1, 2, 3}},
		{Key: "k2", Vector: []float32{4, 5, 6}},
	}
	require.NoError(t, store.PutMany(ctx, items, 3))

	got, err = store.GetMany(ctx, []string{"k1", "k2", "k3"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float32{1, 2, 3}, got["k1"])
	assert.Equal(t, []float32{4, 5, 6}, got["k2"])

	// Upsert replaces in place
	require.NoError(t, store.PutMany(ctx, []Item{{Key: "k1", Vector: []float32{9, 9, 9}}}, 3))
	got, err = store.GetMany(ctx, []string{"k1"})
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 9, 9}, got["k1"])

	// Dimension mismatch is rejected before any write
	err = store.PutMany(ctx, []Item{{Key: "bad", Vector: []float32{1}}}, 3)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
	got, err = store.GetMany(ctx, []string{"bad"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteCacheContract(t *testing.T) {
	store, err := NewSQLiteCache(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cacheStoreContract(t, store)
}

func TestSQLiteCachePersists(t *testing.T) {
	path := t.TempDir() + "/cache.db"

	store, err := NewSQLiteCache(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.PutMany(ctx, []Item{{Key: "k", Vector: []float32{1, 2}}}, 2))
	require.NoError(t, store.Close())

	// Reopen: the entry must survive the restart.
	store, err = NewSQLiteCache(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetMany(ctx, []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got["k"])
}

func TestBadgerCacheContract(t *testing.T) {
	store, err := NewBadgerCache(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cacheStoreContract(t, store)
}

func TestBadgerCachePersists(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBadgerCache(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.PutMany(ctx, []Item{{Key: "k", Vector: []float32{7}}}, 1))
	require.NoError(t, store.Close())

	store, err = NewBadgerCache(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetMany(ctx, []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, []float32{7}, got["k"])
}

func TestFactoryUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "postgres"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestFactoryDefaultsToSQLite(t *testing.T) {
	store, err := New(Config{Path: t.TempDir() + "/c.db"})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, ok := store.(*SQLiteCache)
	assert.True(t, ok)
}

func TestFactoryBadger(t *testing.T) {
	store, err := New(Config{Backend: BackendBadger, Path: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, ok := store.(*BadgerCache)
	assert.True(t, ok)
}
