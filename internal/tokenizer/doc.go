// Package tokenizer counts and encodes tokens for chunking and batch
// packing.
//
// Token counting delegates to the tiktoken BPE tables bound to the model's
// encoding family when those tables can be loaded. Codecs are loaded once
// per model and cached; a model whose tables cannot be loaded is remembered
// so the load is not retried on every call.
//
// # Fallback
//
// When no codec is available, CountTokens falls back to a whitespace word
// count. The fallback is approximate: callers relying on exact token
// budgets (batch packing, chunk sizing) get degraded precision, never an
// error. A missing tokenizer must not stop ingestion.
//
//	tok := tokenizer.New()
//	n := tok.CountTokens("some text", "text-embedding-3-large")
//
// Exact encode/decode access, used by the window chunker:
//
//	codec, ok := tok.Codec("text-embedding-3-large")
//	if ok {
//	    ids := codec.Encode("some text")
//	    round := codec.Decode(ids)
//	}
package tokenizer
