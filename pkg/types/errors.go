package types

import "errors"

// Data errors. These are fatal and immediate: silently coercing a vector to
// a different dimension would corrupt similarity geometry.
var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyEmbedding    = errors.New("embedding cannot be empty")
	ErrEmptyID           = errors.New("document ID cannot be empty")
)
