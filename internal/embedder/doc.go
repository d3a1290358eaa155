// Package embedder turns text into vector embeddings via remote providers,
// with batching, caching, bounded concurrency, and retry.
//
// # Providers
//
// The Embedder interface wraps one remote embedding API call: embed a small
// batch of strings into vectors of one fixed dimension. OpenAI and Jina AI
// providers are included, plus a deterministic local provider for offline
// use. Provider selection follows the environment:
//
//  1. If RAGCONTEXT_EMBEDDING_PROVIDER is set → use that provider
//  2. Else if OPENAI_API_KEY is set → OpenAI
//  3. Else if JINA_API_KEY is set → Jina AI
//  4. Else → local provider (offline mode)
//
// # Batched orchestration
//
// Batcher.EmbedAll is the workhorse for document ingestion:
//
//	b := embedder.NewBatcher(client, cacheStore, tok)
//	res, err := b.EmbedAll(ctx, texts, embedder.BatchOptions{
//	    BatchSize:      256,
//	    MaxConcurrency: 6,
//	})
//	// res.Vectors[i] corresponds to texts[i], always.
//
// It partitions inputs into cache hits and misses, builds batches (by count,
// or first-fit-decreasing token packing when MaxTokensPerBatch is set),
// dispatches at most MaxConcurrency batches at a time, retries transient
// failures with exponential backoff and jitter, and writes results back by
// original index so output order always matches input order.
//
// A batch failure that is not transient, or that exhausts MaxRetries,
// aborts the whole call. Callers never receive a silently truncated vector
// list.
//
// # Caching
//
// Two tiers: an in-memory LRU in front of the durable storage.CacheStore.
// Keys are content hashes of (model, text), so a text re-embedded under the
// same model is never sent to the provider twice. Cache writes after a
// successful batch are best-effort; a write failure never fails the embed.
//
// # Error classification
//
// Providers surface HTTP failures as *APIError with the status code, so
// transience is classified by code first (429, 408, 5xx). Errors without a
// structured code fall back to substring matching on the message, an
// acknowledged fragility of remote APIs that do not expose an error
// taxonomy.
package embedder
