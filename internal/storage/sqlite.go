package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SQLiteCache implements CacheStore using a single-file SQLite database.
type SQLiteCache struct {
	db *sql.DB
	mu sync.Mutex
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteCache opens (or creates) the cache database at path and applies
// pending migrations. Use ":memory:" for an ephemeral cache in tests.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// GetMany returns the cached vectors for the subset of keys present.
func (c *SQLiteCache) GetMany(ctx context.Context, keys []string) (map[string][]float32, error) {
	if len(keys) == 0 {
		return map[string][]float32{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]
	query := "SELECT key, dim, vec FROM embeddings WHERE key IN (" + placeholders + ")"

	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]float32, len(keys))
	for rows.Next() {
		var key string
		var dim int
		var blob []byte
		if err := rows.Scan(&key, &dim, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}
		vec, err := deserializeVector(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		out[key] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// PutMany upserts the given items. Replacing an existing key is safe and
// expected; the write is atomic across the batch.
func (c *SQLiteCache) PutMany(ctx context.Context, items []Item, dim int) error {
	if len(items) == 0 {
		return nil
	}
	if err := validateItems(items, dim); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO embeddings (key, dim, vec) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare cache write: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.Key, dim, serializeVector(it.Vector)); err != nil {
			return fmt.Errorf("failed to write key %s: %w", it.Key, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
