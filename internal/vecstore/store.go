package vecstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// Store is a searchable collection of embedded documents.
type Store interface {
	// Upsert adds documents, replacing any existing document with the
	// same ID. All embeddings must share the store's dimension.
	Upsert(ctx context.Context, docs []types.VectorDoc) error

	// Query returns the topK most similar documents by cosine
	// similarity, best first.
	Query(ctx context.Context, embedding []float32, topK int) ([]types.Retrieved, error)

	// Clear removes all documents.
	Clear(ctx context.Context) error

	// Dim returns the embedding dimension, or 0 when empty.
	Dim() int

	// Len returns the number of stored documents.
	Len() int
}

// MemoryStore is an exact in-memory Store using brute-force cosine
// similarity. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	dim   int
	byID  map[string]int
	docs  []types.VectorDoc
	norms []float32
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (s *MemoryStore) Upsert(_ context.Context, docs []types.VectorDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if doc.ID == "" {
			return types.ErrEmptyID
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %s", types.ErrEmptyEmbedding, doc.ID)
		}
		if s.dim == 0 {
			s.dim = len(doc.Embedding)
		}
		if len(doc.Embedding) != s.dim {
			return fmt.Errorf("%w: document %s has dim %d, store has %d",
				types.ErrDimensionMismatch, doc.ID, len(doc.Embedding), s.dim)
		}

		norm := vectorNorm(doc.Embedding)
		if idx, ok := s.byID[doc.ID]; ok {
			s.docs[idx] = doc
			s.norms[idx] = norm
			continue
		}
		s.byID[doc.ID] = len(s.docs)
		s.docs = append(s.docs, doc)
		s.norms = append(s.norms, norm)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, embedding []float32, topK int) ([]types.Retrieved, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 {
		return nil, nil
	}
	if s.dim != 0 && len(embedding) != s.dim {
		return nil, fmt.Errorf("%w: query has dim %d, store has %d",
			types.ErrDimensionMismatch, len(embedding), s.dim)
	}
	if topK < 1 {
		topK = 1
	}

	qNorm := vectorNorm(embedding)
	scored := make([]types.Retrieved, 0, len(s.docs))
	for i, doc := range s.docs {
		scored = append(scored, types.Retrieved{
			ID:        doc.ID,
			Score:     cosineWithNorms(embedding, qNorm, doc.Embedding, s.norms[i]),
			Text:      doc.Text,
			Meta:      doc.Meta,
			Embedding: doc.Embedding,
		})
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = 0
	s.docs = nil
	s.norms = nil
	s.byID = make(map[string]int)
	return nil
}

func (s *MemoryStore) Dim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Docs returns a snapshot of all stored documents. Used by rerankers
// that need candidate embeddings.
func (s *MemoryStore) Docs() []types.VectorDoc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.VectorDoc, len(s.docs))
	copy(out, s.docs)
	return out
}

// Get returns the document with the given ID.
func (s *MemoryStore) Get(id string) (types.VectorDoc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return types.VectorDoc{}, false
	}
	return s.docs[idx], true
}

func vectorNorm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	return cosineWithNorms(a, vectorNorm(a), b, vectorNorm(b))
}

func cosineWithNorms(a []float32, aNorm float32, b []float32, bNorm float32) float32 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot) / (aNorm * bNorm)
}
