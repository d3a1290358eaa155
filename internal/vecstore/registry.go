package vecstore

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// StoreFactory builds an empty Store for a new collection.
type StoreFactory func(name string) (Store, error)

// Registry manages named vector collections. Each collection's
// dimension is fixed by the first vectors it receives; upserting a
// different dimension resets the collection rather than mixing
// incomparable vectors.
type Registry struct {
	mu      sync.Mutex
	factory StoreFactory
	stores  map[string]Store
}

// NewRegistry creates a Registry that builds collections with factory.
func NewRegistry(factory StoreFactory) *Registry {
	if factory == nil {
		factory = func(string) (Store, error) { return NewMemoryStore(), nil }
	}
	return &Registry{
		factory: factory,
		stores:  make(map[string]Store),
	}
}

// Collection returns the named collection, creating it on first use.
func (r *Registry) Collection(name string) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectionLocked(name)
}

func (r *Registry) collectionLocked(name string) (Store, error) {
	if s, ok := r.stores[name]; ok {
		return s, nil
	}
	s, err := r.factory(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	r.stores[name] = s
	return s, nil
}

// Upsert adds docs to the named collection. When the docs' dimension
// differs from the collection's, the collection is cleared first; the
// old vectors came from a different embedding model and cannot be
// compared with the new ones.
func (r *Registry) Upsert(ctx context.Context, name string, docs []types.VectorDoc) error {
	if len(docs) == 0 {
		return nil
	}
	r.mu.Lock()
	store, err := r.collectionLocked(name)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if dim := store.Dim(); dim != 0 && len(docs[0].Embedding) != dim {
		log.Printf("vecstore: collection %q dimension changed %d -> %d, resetting",
			name, dim, len(docs[0].Embedding))
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to reset collection %q: %w", name, err)
		}
	}
	return store.Upsert(ctx, docs)
}

// Query searches the named collection. A missing collection returns no
// results rather than an error.
func (r *Registry) Query(ctx context.Context, name string, embedding []float32, topK int) ([]types.Retrieved, error) {
	r.mu.Lock()
	store, ok := r.stores[name]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return store.Query(ctx, embedding, topK)
}

// Clear empties the named collection. Clearing a missing collection is
// a no-op.
func (r *Registry) Clear(ctx context.Context, name string) error {
	r.mu.Lock()
	store, ok := r.stores[name]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return store.Clear(ctx)
}

// Names returns the registered collection names.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	return names
}

// Stats reports per-collection document counts and dimensions.
func (r *Registry) Stats() map[string]CollectionStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make(map[string]CollectionStats, len(r.stores))
	for name, store := range r.stores {
		stats[name] = CollectionStats{Count: store.Len(), Dim: store.Dim()}
	}
	return stats
}

// CollectionStats describes one collection.
type CollectionStats struct {
	Count int `json:"count"`
	Dim   int `json:"dim"`
}
