package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

var (
	// ErrCorruptEntry is returned when a persisted vector cannot be
	// decoded. Corrupt entries are data errors: surfaced, never coerced.
	ErrCorruptEntry = errors.New("corrupt cache entry")
	// ErrUnknownBackend is returned by the factory for an unrecognized
	// backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Item is one (key, vector) pair for PutMany.
type Item struct {
	Key    string
	Vector []float32
}

// CacheStore is the durable embedding cache. Implementations serialize
// their own access; GetMany returns only keys present in the store.
type CacheStore interface {
	GetMany(ctx context.Context, keys []string) (map[string][]float32, error)
	PutMany(ctx context.Context, items []Item, dim int) error
	Close() error
}

// serializeVector converts a float32 slice to a little-endian byte blob.
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice. The blob
// length must be a multiple of 4 and match the expected dimension.
func deserializeVector(blob []byte, dim int) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: blob length %d not a multiple of 4", ErrCorruptEntry, len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	if dim > 0 && len(vector) != dim {
		return nil, fmt.Errorf("%w: stored dim %d, entry has %d values", ErrCorruptEntry, dim, len(vector))
	}
	return vector, nil
}

// validateItems rejects writes whose vectors do not match the declared
// dimension before anything is persisted.
func validateItems(items []Item, dim int) error {
	for _, it := range items {
		if len(it.Vector) != dim {
			return fmt.Errorf("%w: key %s has %d values, want %d",
				types.ErrDimensionMismatch, it.Key, len(it.Vector), dim)
		}
	}
	return nil
}
