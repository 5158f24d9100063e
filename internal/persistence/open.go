// Package persistence selects the storage backend named by configuration.
package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/daywell/internal/config"
	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/persistence/memory"
	"example.com/daywell/internal/persistence/postgres"
	"example.com/daywell/internal/persistence/sqlite"
)

// Backend is an opened storage backend. Pool is set only for Postgres, which is the one backend
// that carries the outbox.
type Backend struct {
	Repository domain.Repository
	Pool       *pgxpool.Pool
	close      func()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the backend named by cfg.StorageDriver.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return &Backend{Repository: postgres.NewRepository(pool), Pool: pool, close: pool.Close}, nil
	case config.StorageSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Repository: repo, close: func() { _ = repo.Close() }}, nil
	case config.StorageMemory:
		return &Backend{Repository: memory.NewRepository()}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
