package embedder

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/ragcontext-mcp/internal/storage"
	"github.com/dshills/ragcontext-mcp/internal/tokenizer"
	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// Defaults for BatchOptions zero values.
const (
	DefaultBatchSize      = 256
	DefaultMaxConcurrency = 6
	DefaultMaxRetries     = 6
)

// BatchOptions tunes one EmbedAll run. Zero values mean defaults.
type BatchOptions struct {
	// BatchSize caps the number of texts per provider call.
	BatchSize int
	// MaxConcurrency caps in-flight provider calls.
	MaxConcurrency int
	// MaxRetries caps retries per batch on transient failures.
	MaxRetries int
	// MaxTokensPerBatch, when positive, enables token-aware packing:
	// texts are packed first-fit-decreasing so each batch stays under
	// the budget. Texts larger than the budget travel alone.
	MaxTokensPerBatch int
	// OnProgress, when set, observes scheduling and completion events.
	OnProgress ProgressFunc
}

func (o *BatchOptions) fill() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
}

// BatchResult summarizes one EmbedAll run.
type BatchResult struct {
	// Vectors holds one embedding per input text, in input order.
	Vectors [][]float32
	// Dim is the embedding dimension.
	Dim int
	// CacheHits counts texts served without a provider call.
	CacheHits int
	// Retries counts backoffs performed across all batches.
	Retries int
	// Batches counts provider calls made.
	Batches int
	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Batcher embeds large text sets through a two-tier cache and a
// bounded pool of batched provider calls.
type Batcher struct {
	client Embedder
	store  storage.CacheStore
	memory *Cache
	tok    *tokenizer.Tokenizer
}

// NewBatcher creates a Batcher. store may be nil to disable the durable
// cache tier; tok may be nil when token-aware packing is not used.
func NewBatcher(client Embedder, store storage.CacheStore, tok *tokenizer.Tokenizer) *Batcher {
	return &Batcher{
		client: client,
		store:  store,
		memory: NewCache(0),
		tok:    tok,
	}
}

// Client returns the underlying embedder.
func (b *Batcher) Client() Embedder { return b.client }

// EmbedAll embeds texts, serving from cache where possible and batching
// the rest through the provider. Vectors come back in input order.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string, opts BatchOptions) (*BatchResult, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}
	opts.fill()
	start := time.Now()

	model := b.client.Model()
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = types.CacheKey(model, text)
	}

	vectors := make([][]float32, len(texts))
	cacheHits := 0

	// Tier 1: in-memory LRU.
	var missIdx []int
	for i, key := range keys {
		if vec, ok := b.memory.Get(key); ok {
			vectors[i] = vec
			cacheHits++
			continue
		}
		missIdx = append(missIdx, i)
	}

	// Tier 2: durable store.
	if b.store != nil && len(missIdx) > 0 {
		lookup := make([]string, 0, len(missIdx))
		for _, i := range missIdx {
			lookup = append(lookup, keys[i])
		}
		found, err := b.store.GetMany(ctx, lookup)
		if err != nil {
			// A broken cache degrades to a miss, not a failed run.
			log.Printf("embedder: cache read failed: %v", err)
			found = nil
		}
		remaining := missIdx[:0]
		for _, i := range missIdx {
			if vec, ok := found[keys[i]]; ok {
				vectors[i] = vec
				b.memory.Set(keys[i], vec)
				cacheHits++
				continue
			}
			remaining = append(remaining, i)
		}
		missIdx = remaining
	}

	if len(missIdx) == 0 {
		result := &BatchResult{
			Vectors:   vectors,
			Dim:       dimOf(vectors),
			CacheHits: cacheHits,
			Elapsed:   time.Since(start),
		}
		emitProgress(opts.OnProgress, Progress{
			Stage:      StageDone,
			TotalTexts: len(texts),
			CacheHits:  cacheHits,
			Elapsed:    result.Elapsed,
		})
		return result, nil
	}

	batches := b.planBatches(missIdx, texts, opts)
	emitProgress(opts.OnProgress, Progress{
		Stage:        StageScheduled,
		TotalTexts:   len(texts),
		TotalBatches: len(batches),
		CacheHits:    cacheHits,
	})

	var retriesTotal, doneBatches atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrency)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			batchTexts := make([]string, len(batch))
			for j, i := range batch {
				batchTexts[j] = texts[i]
			}
			vecs, retries, err := embedWithRetry(gctx, b.client, batchTexts, opts.MaxRetries)
			retriesTotal.Add(int64(retries))
			if err != nil {
				return fmt.Errorf("embedding batch of %d failed: %w", len(batch), err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("%w: got %d vectors for %d texts", ErrProviderFailed, len(vecs), len(batch))
			}
			// Each batch owns a disjoint set of slots.
			for j, i := range batch {
				vectors[i] = vecs[j]
			}
			done := doneBatches.Add(1)
			emitProgress(opts.OnProgress, Progress{
				Stage:        StageBatchDone,
				TotalTexts:   len(texts),
				TotalBatches: len(batches),
				DoneBatches:  int(done),
				CacheHits:    cacheHits,
				Retries:      int(retriesTotal.Load()),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := dimOf(vectors)
	// Unset slots should never survive a successful run, but a zero
	// vector beats a nil one downstream.
	for i := range vectors {
		if vectors[i] == nil {
			vectors[i] = make([]float32, dim)
		}
	}

	b.persist(ctx, keys, vectors, missIdx, dim)

	result := &BatchResult{
		Vectors:   vectors,
		Dim:       dim,
		CacheHits: cacheHits,
		Retries:   int(retriesTotal.Load()),
		Batches:   len(batches),
		Elapsed:   time.Since(start),
	}
	emitProgress(opts.OnProgress, Progress{
		Stage:        StageDone,
		TotalTexts:   len(texts),
		TotalBatches: len(batches),
		DoneBatches:  len(batches),
		CacheHits:    cacheHits,
		Retries:      result.Retries,
		Elapsed:      result.Elapsed,
	})
	return result, nil
}

// planBatches groups miss indices into provider batches. With a token
// budget it packs first-fit-decreasing; otherwise it chunks in input
// order.
func (b *Batcher) planBatches(missIdx []int, texts []string, opts BatchOptions) [][]int {
	if opts.MaxTokensPerBatch <= 0 {
		var batches [][]int
		for len(missIdx) > 0 {
			n := opts.BatchSize
			if n > len(missIdx) {
				n = len(missIdx)
			}
			batches = append(batches, missIdx[:n:n])
			missIdx = missIdx[n:]
		}
		return batches
	}

	model := b.client.Model()
	counts := make(map[int]int, len(missIdx))
	for _, i := range missIdx {
		counts[i] = b.countTokens(texts[i], model)
	}

	order := make([]int, len(missIdx))
	copy(order, missIdx)
	sort.SliceStable(order, func(a, c int) bool {
		return counts[order[a]] > counts[order[c]]
	})

	var batches [][]int
	var batchTokens []int
	for _, i := range order {
		t := counts[i]
		placed := false
		for bi := range batches {
			if len(batches[bi]) < opts.BatchSize && batchTokens[bi]+t <= opts.MaxTokensPerBatch {
				batches[bi] = append(batches[bi], i)
				batchTokens[bi] += t
				placed = true
				break
			}
		}
		if !placed {
			// Oversized texts open a bin of their own.
			batches = append(batches, []int{i})
			batchTokens = append(batchTokens, t)
		}
	}
	return batches
}

func (b *Batcher) countTokens(text, model string) int {
	if b.tok != nil {
		return b.tok.CountTokens(text, model)
	}
	return tokenizer.ApproxTokens(text)
}

// persist writes freshly embedded vectors to both cache tiers.
// Failures are logged, not surfaced; the embeddings themselves are fine.
func (b *Batcher) persist(ctx context.Context, keys []string, vectors [][]float32, missIdx []int, dim int) {
	items := make([]storage.Item, 0, len(missIdx))
	for _, i := range missIdx {
		b.memory.Set(keys[i], vectors[i])
		items = append(items, storage.Item{Key: keys[i], Vector: vectors[i]})
	}
	if b.store == nil || len(items) == 0 {
		return
	}
	if err := b.store.PutMany(ctx, items, dim); err != nil {
		log.Printf("embedder: cache write failed: %v", err)
	}
}

func dimOf(vectors [][]float32) int {
	for _, v := range vectors {
		if len(v) > 0 {
			return len(v)
		}
	}
	return 0
}
