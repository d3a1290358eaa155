package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/ragcontext-mcp/internal/chunker"
	"github.com/dshills/ragcontext-mcp/internal/embedder"
	"github.com/dshills/ragcontext-mcp/internal/retrieval"
	"github.com/dshills/ragcontext-mcp/internal/storage"
	"github.com/dshills/ragcontext-mcp/internal/tokenizer"
	"github.com/dshills/ragcontext-mcp/internal/vecstore"
)

const (
	// ServerName is the MCP server name
	ServerName = "ragcontext-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"

	// EnvVectorBackend selects the vector store backend: memory
	// (default), hnsw, or chromem.
	EnvVectorBackend = "RAGCONTEXT_VECTOR_BACKEND"
	// EnvVectorPath overrides the chromem database location.
	EnvVectorPath = "RAGCONTEXT_VECTOR_PATH"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *retrieval.Engine
	cache  storage.CacheStore
}

// NewServer creates a new MCP server instance wired from environment
// configuration.
func NewServer() (*Server, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	cache, err := storage.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
	}

	registry, err := registryFromEnv()
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	tok := tokenizer.New()
	// One batcher instance: ingest and query share the embedding cache,
	// so a query for previously ingested text never hits the provider.
	batcher := embedder.NewBatcher(emb, cache, tok)
	engine := retrieval.NewEngine(batcher, registry, chunker.New(tok))

	return newServerWithEngine(engine, cache), nil
}

// newServerWithEngine assembles the MCP surface around an engine. Tests
// use this to inject an offline pipeline.
func newServerWithEngine(engine *retrieval.Engine, cache storage.CacheStore) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		engine: engine,
		cache:  cache,
	}
	s.registerTools()
	return s
}

// registryFromEnv builds the collection registry for the configured
// vector backend.
func registryFromEnv() (*vecstore.Registry, error) {
	switch os.Getenv(EnvVectorBackend) {
	case "", "memory":
		return vecstore.NewRegistry(nil), nil
	case "hnsw":
		return vecstore.NewRegistry(func(string) (vecstore.Store, error) {
			return vecstore.NewHNSWIndex(), nil
		}), nil
	case "chromem":
		path := os.Getenv(EnvVectorPath)
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			path = filepath.Join(home, ".ragcontext", "vectors")
		}
		db, err := vecstore.NewChromemDB(path)
		if err != nil {
			return nil, err
		}
		return vecstore.NewRegistry(func(name string) (vecstore.Store, error) {
			return vecstore.NewChromemStore(db, name)
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", os.Getenv(EnvVectorBackend))
	}
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		if s.cache != nil {
			_ = s.cache.Close()
		}
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(ingestDocumentTool(), s.handleIngestDocument)
	s.mcp.AddTool(queryCollectionTool(), s.handleQueryCollection)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(clearCollectionTool(), s.handleClearCollection)
}
