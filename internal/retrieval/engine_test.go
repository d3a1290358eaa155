package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ragcontext-mcp/internal/chunker"
	"github.com/dshills/ragcontext-mcp/internal/embedder"
	"github.com/dshills/ragcontext-mcp/internal/tokenizer"
	"github.com/dshills/ragcontext-mcp/internal/vecstore"
	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// newTestEngine builds an Engine on the offline embedder, an in-memory
// registry, and word-count token counting.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	tok := tokenizer.NewWithLoader(func(string) (tokenizer.Codec, error) {
		return nil, fmt.Errorf("no codec in tests")
	})
	batcher := embedder.NewBatcher(embedder.NewLocalEmbedder(), nil, tok)
	return NewEngine(batcher, vecstore.NewRegistry(nil), chunker.New(tok))
}

func TestIngestAndQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	ing, err := e.Ingest(ctx, IngestRequest{
		Collection: "docs",
		Source:     "notes.txt",
		Text:       "Alpha sentence one. Alpha sentence two. Beta sentence.",
		MaxTokens:  4,
		MinTokens:  -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", ing.Source)
	assert.Greater(t, ing.Chunks, 1)
	assert.Equal(t, 1, ing.Pages)
	assert.Equal(t, embedder.LocalDim, ing.Dim)

	got, err := e.Query(ctx, QueryRequest{
		Collection: "docs",
		Query:      "Alpha sentence one.",
		TopK:       2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, got.Passages)
	// The hash embedder is exact on identical text.
	assert.Contains(t, got.Passages[0].Text, "Alpha sentence one.")
	assert.Equal(t, "notes.txt", got.Passages[0].Source)
	assert.Equal(t, 1, got.Passages[0].Index)
	assert.InDelta(t, 1.0, float64(got.Scores[0]), 1e-4)
	assert.Contains(t, got.Context, "[1] (notes.txt, page 1)")
}

func TestIngestRejectsEmptyText(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Ingest(context.Background(), IngestRequest{Collection: "docs"})
	assert.ErrorIs(t, err, embedder.ErrInvalidInput)
}

func TestQueryRejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Query(context.Background(), QueryRequest{Query: "   "})
	assert.ErrorIs(t, err, embedder.ErrInvalidInput)
}

func TestQueryEmptyCollection(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.Query(context.Background(), QueryRequest{Collection: "nothing", Query: "hello"})
	require.NoError(t, err)
	assert.Empty(t, got.Passages)
	assert.Empty(t, got.Context)
}

func TestIngestGeneratesSourceID(t *testing.T) {
	e := newTestEngine(t)
	ing, err := e.Ingest(context.Background(), IngestRequest{Text: "Some standalone text."})
	require.NoError(t, err)
	assert.NotEmpty(t, ing.Source)
}

func TestIngestHonorsPageMarkers(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	ing, err := e.Ingest(ctx, IngestRequest{
		Collection: "manual",
		Source:     "manual.pdf",
		Text:       "[Page 1] Intro text here. [Page 2] Fuse box is behind the left panel.",
		MinTokens:  -1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ing.Pages)

	got, err := e.Query(ctx, QueryRequest{Collection: "manual", Query: "Fuse box is behind the left panel.", TopK: 1})
	require.NoError(t, err)
	require.Len(t, got.Passages, 1)
	assert.Equal(t, 2, got.Passages[0].Page)
	assert.Contains(t, got.Context, "page 2")
}

func TestQueryCacheHit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	_, err := e.Ingest(ctx, IngestRequest{Collection: "docs", Source: "a", Text: "Cached content here.", MinTokens: -1})
	require.NoError(t, err)

	req := QueryRequest{Collection: "docs", Query: "Cached content here."}
	first, err := e.Query(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := e.Query(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Passages, second.Passages)
}

func TestIngestInvalidatesQueryCache(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	_, err := e.Ingest(ctx, IngestRequest{Collection: "docs", Source: "a", Text: "First document text.", MinTokens: -1})
	require.NoError(t, err)

	req := QueryRequest{Collection: "docs", Query: "document text"}
	_, err = e.Query(ctx, req)
	require.NoError(t, err)

	_, err = e.Ingest(ctx, IngestRequest{Collection: "docs", Source: "b", Text: "Second document text.", MinTokens: -1})
	require.NoError(t, err)

	after, err := e.Query(ctx, req)
	require.NoError(t, err)
	assert.False(t, after.CacheHit, "ingest must drop cached queries")
}

func TestQueryWithMMRKeepsBestFirst(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	for i, text := range []string{
		"The target sentence.",
		"Unrelated filler number one.",
		"Unrelated filler number two.",
		"Unrelated filler number three.",
	} {
		_, err := e.Ingest(ctx, IngestRequest{
			Collection: "docs",
			Source:     fmt.Sprintf("doc-%d", i),
			Text:       text,
			MinTokens:  -1,
		})
		require.NoError(t, err)
	}

	got, err := e.Query(ctx, QueryRequest{
		Collection: "docs",
		Query:      "The target sentence.",
		TopK:       2,
		UseMMR:     true,
	})
	require.NoError(t, err)
	require.Len(t, got.Passages, 2)
	// MMR always seeds with the highest-scored hit; the exact match
	// must stay on top.
	assert.Contains(t, got.Passages[0].Text, "target sentence")
	assert.Equal(t, 1, got.Passages[0].Index)
	assert.Equal(t, 2, got.Passages[1].Index)
}

func TestClearEmptiesCollection(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	_, err := e.Ingest(ctx, IngestRequest{Collection: "docs", Source: "a", Text: "Disposable text.", MinTokens: -1})
	require.NoError(t, err)
	require.NotZero(t, e.Stats()["docs"].Count)

	require.NoError(t, e.Clear(ctx, "docs"))
	assert.Zero(t, e.Stats()["docs"].Count)

	got, err := e.Query(ctx, QueryRequest{Collection: "docs", Query: "Disposable text.", NoCache: true})
	require.NoError(t, err)
	assert.Empty(t, got.Passages)
}

func TestBuildContextBlock(t *testing.T) {
	tests := []struct {
		name     string
		passages []types.Passage
		want     []string
	}{
		{"empty", nil, nil},
		{
			"with source and page",
			[]types.Passage{{Index: 1, Source: "a.pdf", Page: 3, Text: "body"}},
			[]string{"[1] (a.pdf, page 3)\nbody"},
		},
		{
			"source only",
			[]types.Passage{{Index: 1, Source: "a.txt", Text: "body"}},
			[]string{"[1] (a.txt)\nbody"},
		},
		{
			"no source",
			[]types.Passage{{Index: 1, Text: "body"}},
			[]string{"[1]\nbody"},
		},
		{
			"multiple passages",
			[]types.Passage{
				{Index: 1, Source: "a", Page: 1, Text: "first"},
				{Index: 2, Source: "b", Page: 2, Text: "second"},
			},
			[]string{"[1] (a, page 1)", "[2] (b, page 2)", "first\n\n[2]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildContextBlock(tt.passages)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
		})
	}
}
