package vecstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

func TestRegistryCreatesCollectionsLazily(t *testing.T) {
	r := NewRegistry(nil)
	assert.Empty(t, r.Names())

	s, err := r.Collection("docs")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, []string{"docs"}, r.Names())

	again, err := r.Collection("docs")
	require.NoError(t, err)
	assert.Same(t, s.(*MemoryStore), again.(*MemoryStore))
}

func TestRegistryQueryMissingCollection(t *testing.T) {
	r := NewRegistry(nil)
	got, err := r.Query(context.Background(), "nope", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, r.Names(), "query must not create collections")
}

func TestRegistryDimensionChangeResets(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)

	require.NoError(t, r.Upsert(ctx, "docs", []types.VectorDoc{doc("a", 1, 0)}))
	require.NoError(t, r.Upsert(ctx, "docs", []types.VectorDoc{doc("b", 0, 1)}))

	stats := r.Stats()["docs"]
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 2, stats.Dim)

	// New embedding model, new dimension: old vectors are dropped.
	require.NoError(t, r.Upsert(ctx, "docs", []types.VectorDoc{doc("c", 1, 0, 0)}))

	stats = r.Stats()["docs"]
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 3, stats.Dim)

	got, err := r.Query(ctx, "docs", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestRegistryClear(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)
	require.NoError(t, r.Upsert(ctx, "docs", []types.VectorDoc{doc("a", 1, 0)}))

	require.NoError(t, r.Clear(ctx, "docs"))
	assert.Equal(t, 0, r.Stats()["docs"].Count)

	require.NoError(t, r.Clear(ctx, "missing"))
}

func TestRegistryIsolatesCollections(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)
	require.NoError(t, r.Upsert(ctx, "one", []types.VectorDoc{doc("a", 1, 0)}))
	require.NoError(t, r.Upsert(ctx, "two", []types.VectorDoc{doc("b", 0, 1)}))

	got, err := r.Query(ctx, "one", []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
