// Package store opens the repository selected by STORE_DRIVER.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/journal/internal/config"
	"example.com/journal/internal/domain"
	"example.com/journal/internal/persistence/memory"
	"example.com/journal/internal/persistence/postgres"
	"example.com/journal/internal/persistence/sqlite"
)

// Store is an opened repository. Pool is set only for the postgres driver.
type Store struct {
	Driver string
	Repo   domain.Repository
	Pool   *pgxpool.Pool

	close func()
}

// Open connects to the configured driver.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return &Store{Driver: cfg.StoreDriver, Repo: postgres.NewRepository(pool), Pool: pool, close: pool.Close}, nil
	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{Driver: cfg.StoreDriver, Repo: repo, close: func() { _ = repo.Close() }}, nil
	case config.DriverMemory:
		return &Store{Driver: cfg.StoreDriver, Repo: memory.NewRepository(), close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
