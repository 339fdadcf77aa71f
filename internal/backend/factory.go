package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/log"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

const probeTimeout = 5 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the configured store, checks it answers and
// connects the event publisher when AMQP is configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.ExpenseStore
		err   error
	)
	switch config.Type {
	case PostgresBackend:
		store, err = f.createPostgresStore(ctx, config)
	case SQLiteBackend:
		store, err = f.createSQLiteStore(ctx, config)
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store}

	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldErrorType, log.ErrorTypeNetwork,
				log.FieldError, err)
			publisher = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = publisher
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if publisher != nil {
			errs = append(errs, publisher.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}

	return result, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (*storage.SQLStore, error) {
	store, err := storage.OpenSQLStore(storage.DialectPostgres, config.DatabaseURL, storage.OpenOptions{
		Migrate: config.AutoMigrate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
	}

	// A remote store that is down at startup is not fatal: each request
	// reports its own store error until it comes back.
	if _, err := f.probe(ctx, store); err != nil {
		f.logger.Warn("Store connectivity check failed",
			log.FieldBackend, store.Dialect().String(),
			log.FieldOperation, log.OpProbe,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
	}

	f.logger.Info("Initialized SQL backend",
		log.FieldBackend, store.Dialect().String(),
		"auto_migrate", config.AutoMigrate)
	return store, nil
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (*storage.SQLStore, error) {
	store, err := storage.OpenSQLStore(storage.DialectSQLite, config.SQLiteDBPath, storage.OpenOptions{Migrate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	if _, err := f.probe(ctx, store); err != nil {
		store.Close()
		return nil, fmt.Errorf("SQLite store is not usable: %w", err)
	}

	f.logger.Info("Initialized SQL backend",
		log.FieldBackend, store.Dialect().String(),
		"db_path", config.SQLiteDBPath)
	return store, nil
}

func (f *DefaultFactory) probe(ctx context.Context, store storage.ExpenseStore) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	rows, err := store.Probe(ctx)
	if err != nil {
		return 0, err
	}
	f.logger.Debug("Store connectivity check passed", log.FieldOperation, log.OpProbe, log.FieldCount, rows)
	return rows, nil
}
