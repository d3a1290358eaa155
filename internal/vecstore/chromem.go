package vecstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// ChromemStore is a persistent Store backed by chromem-go. Documents
// and their embeddings survive process restarts, so collections do not
// need re-embedding after a restart.
type ChromemStore struct {
	mu   sync.Mutex
	db   *chromem.DB
	name string
	coll *chromem.Collection
	dim  int
}

// NewChromemDB opens or creates a persistent chromem database at path.
func NewChromemDB(path string) (*chromem.DB, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	return db, nil
}

// NewChromemStore opens the named collection in db, creating it if
// missing. Existing documents define the store's dimension.
func NewChromemStore(db *chromem.DB, name string) (*ChromemStore, error) {
	coll, err := db.GetOrCreateCollection(name, nil, noRemoteEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", name, err)
	}
	return &ChromemStore{db: db, name: name, coll: coll}, nil
}

// noRemoteEmbedding rejects implicit embedding. Every document and
// query reaches this store with an embedding already attached.
func noRemoteEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("store requires precomputed embeddings")
}

func (s *ChromemStore) Upsert(ctx context.Context, docs []types.VectorDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cdocs := make([]chromem.Document, 0, len(docs))
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
		cdocs = append(cdocs, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Text,
			Embedding: doc.Embedding,
			Metadata:  doc.Meta,
		})
	}
	if len(cdocs) == 0 {
		return nil
	}
	if err := s.coll.AddDocuments(ctx, cdocs, 1); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, embedding []float32, topK int) ([]types.Retrieved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.coll.Count()
	if count == 0 {
		return nil, nil
	}
	if s.dim != 0 && len(embedding) != s.dim {
		return nil, fmt.Errorf("%w: query has dim %d, store has %d",
			types.ErrDimensionMismatch, len(embedding), s.dim)
	}
	if topK < 1 {
		topK = 1
	}
	if topK > count {
		topK = count
	}

	results, err := s.coll.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	out := make([]types.Retrieved, len(results))
	for i, r := range results {
		out[i] = types.Retrieved{
			ID:        r.ID,
			Score:     r.Similarity,
			Text:      r.Content,
			Meta:      r.Metadata,
			Embedding: r.Embedding,
		}
	}
	return out, nil
}

func (s *ChromemStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", s.name, err)
	}
	coll, err := s.db.GetOrCreateCollection(s.name, nil, noRemoteEmbedding)
	if err != nil {
		return fmt.Errorf("failed to recreate collection %q: %w", s.name, err)
	}
	s.coll = coll
	s.dim = 0
	return nil
}

func (s *ChromemStore) Dim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

func (s *ChromemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Count()
}
