// Package chunker splits raw document text into token-bounded chunks for
// embedding.
//
// Two strategies are provided:
//
//   - ChunkText slides a fixed token window across the encoded text with a
//     configurable overlap. It is exact when the tokenizer has a codec for
//     the model and degrades to a word-window approximation otherwise.
//   - SentenceWindows / PagesToChunks group whole sentences into windows
//     bounded by a token budget, reconstructing the overlap from tail
//     sentences. A sentence is never split; embedding fragments that start
//     or end mid-sentence measurably degrades embedding quality.
//
// # Guarantees of ChunkText
//
// For non-empty input and maxTokens > 0, the union of chunks covers the
// full token sequence, consecutive chunks overlap by exactly overlap tokens
// (clamped to chunk length), and the stride is max(1, maxTokens-overlap).
// maxTokens <= 0 returns the whole text as a single chunk; empty input
// yields no chunks.
//
// # Page markers
//
// Uploaded documents may arrive pre-segmented with inline [Page N] markers.
// SplitPages splits on those markers; the window chunker itself treats them
// as ordinary text.
package chunker
