// Package retrieval wires chunking, embedding, and vector search into
// the ingest and query operations the server exposes.
package retrieval

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/ragcontext-mcp/internal/chunker"
	"github.com/dshills/ragcontext-mcp/internal/embedder"
	"github.com/dshills/ragcontext-mcp/internal/reranker"
	"github.com/dshills/ragcontext-mcp/internal/vecstore"
	"github.com/dshills/ragcontext-mcp/pkg/types"
)

const (
	// DefaultTopK is the result count when a query does not set one.
	DefaultTopK = 5
	// mmrPoolFactor widens the candidate pool fed to MMR so diversity
	// has something to choose from.
	mmrPoolFactor = 4

	queryCacheSize = 1000
	queryCacheTTL  = 60 * time.Second
)

// IngestRequest describes one document to ingest.
type IngestRequest struct {
	Collection string
	// Source labels the document (file name, URL). Empty sources get a
	// generated ID.
	Source string
	Text   string
	// MaxTokens, MinTokens, OverlapRatio override chunking defaults
	// when non-zero.
	MaxTokens    int
	MinTokens    int
	OverlapRatio float64
}

// IngestResult summarizes one ingest.
type IngestResult struct {
	Source    string `json:"source"`
	Chunks    int    `json:"chunks"`
	Pages     int    `json:"pages"`
	CacheHits int    `json:"cache_hits"`
	Dim       int    `json:"dim"`
}

// QueryRequest describes one retrieval query.
type QueryRequest struct {
	Collection string
	Query      string
	// TopK caps returned passages; zero means DefaultTopK.
	TopK int
	// UseMMR re-ranks a widened candidate pool for diversity.
	UseMMR bool
	// Lambda is the MMR relevance weight in [0, 1]; zero means the
	// package default.
	Lambda float64
	// NoCache bypasses the query cache.
	NoCache bool
}

// QueryResult is one answered query.
type QueryResult struct {
	Passages []types.Passage   `json:"passages"`
	Scores   []float32         `json:"scores"`
	Context  string            `json:"context"`
	CacheHit bool              `json:"cache_hit"`
	Duration time.Duration     `json:"duration_ns"`
}

// cacheEntry pairs a cached result with its expiry.
type cacheEntry struct {
	result    *QueryResult
	expiresAt time.Time
}

// Engine is the retrieval facade: ingest documents into named
// collections and answer similarity queries over them.
type Engine struct {
	batcher  *embedder.Batcher
	registry *vecstore.Registry
	chunker  *chunker.Chunker

	cacheMu sync.Mutex
	cache   *lru.Cache[[32]byte, *cacheEntry]

	batchOpts embedder.BatchOptions
}

// NewEngine creates an Engine over the given batcher, registry, and
// chunker.
func NewEngine(batcher *embedder.Batcher, registry *vecstore.Registry, ch *chunker.Chunker) *Engine {
	cache, err := lru.New[[32]byte, *cacheEntry](queryCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}
	return &Engine{
		batcher:  batcher,
		registry: registry,
		chunker:  ch,
		cache:    cache,
	}
}

// SetBatchOptions overrides the embedding batch options used by Ingest
// and Query.
func (e *Engine) SetBatchOptions(opts embedder.BatchOptions) {
	e.batchOpts = opts
}

// Ingest splits, embeds, and stores one document.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("%w: document text is empty", embedder.ErrInvalidInput)
	}
	collection := req.Collection
	if collection == "" {
		collection = "default"
	}
	source := req.Source
	if source == "" {
		source = uuid.NewString()
	}

	pages := chunker.SplitPages(req.Text)
	opts := chunker.IngestOptions{
		Model:        e.batcher.Client().Model(),
		MaxTokens:    req.MaxTokens,
		MinTokens:    req.MinTokens,
		OverlapRatio: req.OverlapRatio,
	}
	if opts.MinTokens == 0 {
		opts.MinTokens = chunker.DefaultMinTokens
	}
	if opts.OverlapRatio == 0 {
		opts.OverlapRatio = chunker.DefaultOverlapRatio
	}
	chunks := e.chunker.PagesToChunks(pages, opts)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", embedder.ErrInvalidInput)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	batch, err := e.batcher.EmbedAll(ctx, texts, e.batchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document %q: %w", source, err)
	}

	docs := make([]types.VectorDoc, len(chunks))
	for i, c := range chunks {
		docs[i] = types.VectorDoc{
			ID:        fmt.Sprintf("%s:%s:%d:%d", collection, source, c.Page, c.Index),
			Text:      c.Text,
			Embedding: batch.Vectors[i],
			Meta: map[string]string{
				"source": source,
				"page":   fmt.Sprintf("%d", c.Page),
				"chunk":  fmt.Sprintf("%d", c.Index),
			},
		}
	}
	if err := e.registry.Upsert(ctx, collection, docs); err != nil {
		return nil, fmt.Errorf("failed to store document %q: %w", source, err)
	}

	// Ingest changes what queries should return.
	e.invalidateCache()

	return &IngestResult{
		Source:    source,
		Chunks:    len(chunks),
		Pages:     len(pages),
		CacheHits: batch.CacheHits,
		Dim:       batch.Dim,
	}, nil
}

// Query embeds the query text and returns the best-matching passages
// with a citation-ready context block.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	start := time.Now()
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is empty", embedder.ErrInvalidInput)
	}
	collection := req.Collection
	if collection == "" {
		collection = "default"
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	lambda := req.Lambda
	if lambda == 0 {
		lambda = reranker.DefaultLambda
	}

	key := queryCacheKey(collection, req.Query, topK, req.UseMMR, lambda)
	if !req.NoCache {
		if cached := e.checkCache(key); cached != nil {
			out := *cached
			out.CacheHit = true
			out.Duration = time.Since(start)
			return &out, nil
		}
	}

	batch, err := e.batcher.EmbedAll(ctx, []string{req.Query}, e.batchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec := batch.Vectors[0]

	poolK := topK
	if req.UseMMR {
		poolK = topK * mmrPoolFactor
	}
	hits, err := e.registry.Query(ctx, collection, queryVec, poolK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if req.UseMMR && len(hits) > topK {
		hits = applyMMR(hits, topK, lambda)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	result := &QueryResult{
		Passages: toPassages(hits),
		Scores:   make([]float32, len(hits)),
		Duration: time.Since(start),
	}
	for i, h := range hits {
		result.Scores[i] = h.Score
	}
	result.Context = BuildContextBlock(result.Passages)

	if !req.NoCache && len(hits) > 0 {
		e.storeInCache(key, result)
	}
	return result, nil
}

// Stats reports collection statistics for status tooling.
func (e *Engine) Stats() map[string]vecstore.CollectionStats {
	return e.registry.Stats()
}

// Clear empties the named collection and drops cached queries.
func (e *Engine) Clear(ctx context.Context, collection string) error {
	if collection == "" {
		collection = "default"
	}
	if err := e.registry.Clear(ctx, collection); err != nil {
		return err
	}
	e.invalidateCache()
	return nil
}

func applyMMR(hits []types.Retrieved, topK int, lambda float64) []types.Retrieved {
	cands := make([]reranker.Candidate, len(hits))
	byID := make(map[string]types.Retrieved, len(hits))
	for i, h := range hits {
		cands[i] = reranker.Candidate{ID: h.ID, Score: h.Score, Meta: h.Meta, Vector: h.Embedding}
		byID[h.ID] = h
	}
	picked := reranker.SelectMMR(cands, topK, lambda)
	out := make([]types.Retrieved, len(picked))
	for i, p := range picked {
		out[i] = byID[p.ID]
	}
	return out
}

func queryCacheKey(collection, query string, topK int, useMMR bool, lambda float64) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%s\n%s\n%d\n%t\n%f", collection, query, topK, useMMR, lambda)))
}

func (e *Engine) checkCache(key [32]byte) *QueryResult {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	entry, ok := e.cache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		e.cache.Remove(key)
		return nil
	}
	return entry.result
}

func (e *Engine) storeInCache(key [32]byte, result *QueryResult) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cache.Add(key, &cacheEntry{result: result, expiresAt: time.Now().Add(queryCacheTTL)})
}

func (e *Engine) invalidateCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cache.Purge()
}
