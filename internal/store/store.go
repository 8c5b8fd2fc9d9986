package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("key not found")
)

// KV is the opaque string-keyed record store the application persists into.
// Implementations must be safe for concurrent use.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a KV backend.
type Options struct {
	Backend     string // memory, sqlite, sqlite3, postgres
	Path        string
	DatabaseURL string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		return NewSQLite(ctx, opts.Backend, opts.Path)
	case "postgres":
		return NewPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
