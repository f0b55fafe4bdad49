package backend

import (
	"context"
	"fmt"
	"log/slog"

	"findash/internal/storage"
	"findash/internal/store/memory"
	"findash/internal/store/mongo"
)

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend opens the store selected by config. The caller must invoke
// the returned Cleanup when done.
func (f *Factory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *Factory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *Factory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDatabase)

	return &BackendResult{Store: s, Cleanup: s.Close}, nil
}

func (f *Factory) createMemoryBackend() (*BackendResult, error) {
	s := memory.New()

	f.logger.Info("Initialized memory backend")

	return &BackendResult{Store: s, Cleanup: s.Close}, nil
}
