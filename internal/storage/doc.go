// Package storage provides the durable embedding cache: a key-value store
// mapping CacheKey (sha256 of model + text) to embedding vectors.
//
// The cache is a pure memoization store keyed by content. It never expires
// entries and never revalidates against remote state; identical model+text
// always maps to the identical key. Vectors are persisted as little-endian
// float32 blobs.
//
// Two backends implement CacheStore:
//
//   - SQLite (default): a single-file database with WAL journaling and
//     semver-tracked schema migrations. The driver is selected at build
//     time: mattn/go-sqlite3 under CGO builds (sqlite_cgo tag),
//     modernc.org/sqlite for pure Go builds.
//   - Badger: an embedded LSM store, useful when many concurrent writers
//     outgrow SQLite's single-writer model.
//
// Select a backend with NewFromEnv (RAGCONTEXT_CACHE_BACKEND=sqlite|badger,
// RAGCONTEXT_CACHE_PATH) or construct one directly.
//
// Concurrency: both backends serialize their own reads and writes; a
// coarse lock is acceptable at batch granularity. GetMany returns only the
// keys present; callers treat absence as "not cached". PutMany is an
// idempotent upsert.
package storage
