//go:build !sqlite_cgo
// +build !sqlite_cgo

package storage

// This file is compiled for the default pure Go build.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// The pure Go implementation needs no C compiler, cross-compiles cleanly,
// and is plenty fast for the batch-sized reads and writes the embedding
// cache sees.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
