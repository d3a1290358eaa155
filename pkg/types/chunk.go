package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// Chunk represents a contiguous, token-bounded span of source text produced
// by the chunker. Chunks are immutable once created and have no identity
// beyond their position in the generated sequence.
type Chunk struct {
	// Content
	Text       string
	TokenCount int

	// Position
	Index int // 0-based position in the chunk sequence for the source
	Page  int // 1-based source page, 0 when the source is unpaged
}

// Page is a single page of extracted document text, as delivered by the
// upload/extraction pipeline.
type Page struct {
	Number int
	Text   string
}

// CacheKey computes the deterministic embedding-cache key for a
// (model, text) pair. Identical model and text always yield the identical
// key; the cache makes no freshness claim beyond that.
func CacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte("\n"))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
