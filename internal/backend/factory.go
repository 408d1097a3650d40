package backend

import (
	"context"
	"fmt"
	"log/slog"

	"yeargrid/internal/cache"
	"yeargrid/internal/session"
	"yeargrid/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case RedisBackend:
		return f.createRedisBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	janitorCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	go repo.RunJanitor(janitorCtx, config.sweepInterval())

	f.logger.Info("Initialized SQLite session backend",
		"db_path", config.SQLiteDBPath,
		"ttl", config.TTL)

	return &BackendResult{
		Store: repo,
		Cleanup: func() error {
			stop()
			return repo.Close()
		},
	}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := session.DialRedis(ctx, config.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	store := session.NewRedisStore(client, config.TTL)

	f.logger.Info("Initialized Redis session backend", "addr", config.RedisAddr, "ttl", config.TTL)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := session.NewMemoryStore(config.CacheSize, config.TTL)
	store.StartJanitor(cache.NewManager(f.logger), config.sweepInterval())

	f.logger.Info("Initialized memory session backend", "size", config.CacheSize, "ttl", config.TTL)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
