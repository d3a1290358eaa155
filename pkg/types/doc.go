// Package types defines the core data types shared across the retrieval
// pipeline: chunks produced by the chunker, vector documents held by the
// vector stores, and the result shapes returned to callers.
//
// Types here are plain data with validation helpers. They have no
// dependencies on the pipeline packages, so any layer (chunker, embedder,
// vecstore, retrieval, mcp) can exchange them without import cycles.
package types
