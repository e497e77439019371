package backend

import (
	"context"
	"time"

	"budgetbook/internal/cache"
	"budgetbook/internal/ledger"
	"budgetbook/internal/users"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the opened stores and the hooks the caller needs around them.
type BackendResult struct {
	// Store is the ledger store, wrapped in the read cache when enabled.
	Store ledger.Store
	// Users is served by the same database as Store.
	Users users.Store
	// Ping backs the readiness probe.
	Ping func(ctx context.Context) error
	// Cache is nil when caching is disabled.
	Cache   *cache.Manager
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory specific. An empty path keeps everything in process.
	SnapshotPath string

	// Read cache. A zero size disables it. Entries are only invalidated by
	// writes made through this process, so SQLite and Postgres are cached
	// only when SingleInstance is set.
	CacheSize      int
	CacheTTL       time.Duration
	SingleInstance bool
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
