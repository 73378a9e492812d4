package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RIGishan/text-toolkit/internal/config"
)

// Backend is the KVStore selected by configuration, together with whatever
// it needs to run and shut down.
type Backend struct {
	KVStore

	driver string
	pool   *pgxpool.Pool
	pg     *PostgresKVStore
	file   *FileKVStore
}

// OpenBackend opens the store named by cfg.Storage.Driver.
func OpenBackend(ctx context.Context, cfg *config.Config, logger Logger) (*Backend, error) {
	b := &Backend{driver: cfg.Storage.Driver}
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		b.KVStore = NewMemoryKVStore()
	case config.DriverFile:
		f, err := OpenFileKVStore(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		b.file = f
		b.KVStore = f
	case config.DriverPostgres:
		pool, err := initDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		pg := NewPostgresKVStore(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		b.pool, b.pg = pool, pg
		b.KVStore = pg
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	logger.Info("Storage opened", "driver", b.driver)
	return b, nil
}

// Driver returns the configured driver name.
func (b *Backend) Driver() string { return b.driver }

// Durable reports whether data outlives the process.
func (b *Backend) Durable() bool { return b.driver != config.DriverMemory }

// Watch forwards to the underlying store when it reports changes.
func (b *Backend) Watch(fn func(key string)) func() {
	if w, ok := b.KVStore.(Watcher); ok {
		return w.Watch(fn)
	}
	return func() {}
}

// Listen relays change notifications from other server instances until ctx
// ends. Backends without cross-instance notifications just wait.
func (b *Backend) Listen(ctx context.Context) error {
	if b.pg == nil {
		<-ctx.Done()
		return nil
	}
	return b.pg.Listen(ctx)
}

// Close releases files and connections.
func (b *Backend) Close() error {
	var err error
	if b.file != nil {
		err = b.file.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	return err
}

func initDatabase(ctx context.Context, cfg *config.Config, logger Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection", "host", cfg.DB.Host, "db", cfg.DB.Name)

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
