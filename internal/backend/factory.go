package backend

import (
	"context"
	"fmt"
	"time"

	"budgetbook/internal/cache"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/storage"
	"budgetbook/internal/storage/memory"
	"budgetbook/internal/storage/postgres"
	"budgetbook/internal/users"
)

const cacheCleanupInterval = time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// backendStore is what every concrete backend provides.
type backendStore interface {
	ledger.Store
	users.Store
	Ping(ctx context.Context) error
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var result *BackendResult
	var err error
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		result, err = f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CacheSize > 0 && !config.Cached() {
		f.logger.Info("Ledger read cache disabled for a shared store; set CACHE_SINGLE_INSTANCE to enable it",
			"backend", config.Type)
	}
	if config.Cached() {
		manager := cache.NewManager()
		result.Store = cache.NewLedgerStore(result.Store, config.CacheSize, config.CacheTTL, manager)
		manager.StartCleanup(cacheCleanupInterval)
		result.Cache = manager

		stats, _ := result.Store.(interface{ Stats() (cache.Stats, cache.Stats) })
		closeStore := result.Cleanup
		result.Cleanup = func() error {
			manager.Stop()
			if stats != nil {
				budgets, expenses := stats.Stats()
				f.logger.Info("Ledger read cache stats",
					"budget_hits", budgets.Hits, "budget_misses", budgets.Misses,
					"expense_hits", expenses.Hits, "expense_misses", expenses.Misses)
			}
			if closeStore != nil {
				return closeStore()
			}
			return nil
		}
		f.logger.Info("Enabled ledger read cache", "size", config.CacheSize, "ttl", config.CacheTTL)
	}
	return result, nil
}

func newResult(store backendStore, cleanup CleanupFunc) *BackendResult {
	return &BackendResult{
		Store:   store,
		Users:   store,
		Ping:    store.Ping,
		Cleanup: cleanup,
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return newResult(repo, repo.Close), nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := postgres.Open(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres store: %w", err)
	}

	f.logger.Info("Initialized postgres backend")
	return newResult(store, store.Close), nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.SnapshotPath == "" {
		f.logger.Info("Initialized memory backend", "persistent", false)
		return newResult(memory.New(), nil), nil
	}

	store, err := memory.NewFromFile(config.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load memory snapshot: %w", err)
	}
	f.logger.Info("Initialized memory backend", "persistent", true, "snapshot", config.SnapshotPath)

	return newResult(store, func() error {
		if err := store.Save(config.SnapshotPath); err != nil {
			return fmt.Errorf("save memory snapshot: %w", err)
		}
		return nil
	}), nil
}
