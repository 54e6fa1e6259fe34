// Package backend selects and opens the configured persistence layer.
package backend

import (
	"context"
	"fmt"

	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/repository"
	"github.com/spendlog/spendlog/internal/repository/sqlite"
	"github.com/spendlog/spendlog/internal/service"
)

// Store is everything the services and health checks need from storage.
type Store interface {
	service.UserStore
	service.ExpenseStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*repository.Repository)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open connects to the store named by cfg.StoreDriver. PostgreSQL schema
// migrations run first when cfg.AutoMigrate is set; the SQLite store
// always migrates on open.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := repository.Migrate(cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Describe returns a log-safe description of the configured store.
func Describe(cfg *config.Config) string {
	if cfg.StoreDriver == config.DriverSQLite {
		return "sqlite:" + cfg.SQLitePath
	}
	return "postgres:" + RedactURL(cfg.DatabaseURL)
}
