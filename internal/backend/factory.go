package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"haushaltskasse/internal/amqp"
	"haushaltskasse/internal/backup"
	"haushaltskasse/internal/storage"
	"haushaltskasse/internal/storage/memory"
	"haushaltskasse/internal/storage/sqlite"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured store and, when an AMQP URL is set, the
// change event client. An unreachable broker is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteStore(config)
	case MemoryBackend:
		store, err = f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	events := f.connectEvents(ctx, config)

	return &BackendResult{
		Store:  store,
		Events: events,
		Cleanup: func() error {
			var errs []error
			if events != nil {
				errs = append(errs, events.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (storage.Store, error) {
	store, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return store, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (storage.Store, error) {
	if config.SeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	}

	raw, err := os.ReadFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	snap, res, ok := backup.Decode(raw)
	if !ok {
		return nil, fmt.Errorf("seed file %s: %s", config.SeedFile, res.Message)
	}
	store, err := memory.NewFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("seed memory store: %w", err)
	}
	f.logger.Info("Initialized memory backend from seed",
		"seed_file", config.SeedFile,
		"users", len(snap.Users),
		"expenses", len(snap.Expenses))
	return store, nil
}

func (f *DefaultFactory) connectEvents(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", "error", err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
