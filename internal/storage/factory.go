package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables read by NewFromEnv.
const (
	EnvCacheBackend = "RAGCONTEXT_CACHE_BACKEND"
	EnvCachePath    = "RAGCONTEXT_CACHE_PATH"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config holds cache store configuration.
type Config struct {
	Backend string
	Path    string
}

// New creates a cache store from explicit configuration.
func New(cfg Config) (CacheStore, error) {
	backend := strings.ToLower(cfg.Backend)
	if backend == "" {
		backend = BackendSQLite
	}

	switch backend {
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = defaultPath("embeddings.db")
		}
		return NewSQLiteCache(path)
	case BackendBadger:
		dir := cfg.Path
		if dir == "" {
			dir = defaultPath("embeddings.badger")
		}
		return NewBadgerCache(dir)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// NewFromEnv creates a cache store based on environment variables,
// defaulting to SQLite under the user's home directory.
func NewFromEnv() (CacheStore, error) {
	return New(Config{
		Backend: os.Getenv(EnvCacheBackend),
		Path:    os.Getenv(EnvCachePath),
	})
}

// defaultPath places cache files under ~/.ragcontext, falling back to the
// working directory when the home directory is unavailable.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".ragcontext", name)
}
