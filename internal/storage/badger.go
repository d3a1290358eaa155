package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces cache entries inside the badger keyspace.
const keyPrefix = "emb:"

// BadgerCache implements CacheStore on an embedded badger LSM store.
// Badger handles its own write serialization, so no extra lock is needed.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens (or creates) a badger-backed cache at dir.
func NewBadgerCache(dir string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

// GetMany returns the cached vectors for the subset of keys present.
func (c *BadgerCache) GetMany(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	err := c.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := txn.Get([]byte(keyPrefix + key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read key %s: %w", key, err)
			}
			err = item.Value(func(val []byte) error {
				vec, derr := decodeValue(val)
				if derr != nil {
					return fmt.Errorf("key %s: %w", key, derr)
				}
				out[key] = vec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutMany upserts the given items in a single write batch.
func (c *BadgerCache) PutMany(ctx context.Context, items []Item, dim int) error {
	if len(items) == 0 {
		return nil
	}
	if err := validateItems(items, dim); err != nil {
		return err
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Set([]byte(keyPrefix+it.Key), encodeValue(it.Vector, dim)); err != nil {
			return fmt.Errorf("failed to write key %s: %w", it.Key, err)
		}
	}
	return wb.Flush()
}

// Close closes the underlying store.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// encodeValue prepends a 4-byte dimension header to the vector blob.
func encodeValue(vector []float32, dim int) []byte {
	blob := serializeVector(vector)
	val := make([]byte, 4+len(blob))
	binary.LittleEndian.PutUint32(val, uint32(dim))
	copy(val[4:], blob)
	return val
}

// decodeValue splits the dimension header from the vector blob.
func decodeValue(val []byte) ([]float32, error) {
	if len(val) < 4 {
		return nil, fmt.Errorf("%w: value too short", ErrCorruptEntry)
	}
	dim := int(binary.LittleEndian.Uint32(val))
	return deserializeVector(val[4:], dim)
}
