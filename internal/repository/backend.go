// Package repository selects and opens the configured NodeStore engine.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"nodetree/internal/config"
	"nodetree/internal/domain/repositories"
	"nodetree/internal/repository/memory"
	"nodetree/internal/repository/postgres"
	"nodetree/internal/repository/sqlite"
)

// Backend bundles an opened store with its transaction manager
type Backend struct {
	Name      string
	Store     repositories.NodeStore
	TxManager repositories.TransactionManager

	clear func(ctx context.Context) error
	close func()
}

// Clear removes every node from the store
func (b *Backend) Clear(ctx context.Context) error {
	return b.clear(ctx)
}

// Close releases connections held by the store
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open creates the store selected by cfg.Store, ensuring its schema exists.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		store := memory.NewNodeStore(logger)
		return &Backend{
			Name:      config.StoreMemory,
			Store:     store,
			TxManager: memory.NewTransactionManager(),
			clear: func(context.Context) error {
				store.Clear()
				return nil
			},
		}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.TablePrefix, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite opened", "path", db.Path())
		return &Backend{
			Name:      config.StoreSQLite,
			Store:     sqlite.NewNodeRepository(db),
			TxManager: sqlite.NewTransactionManager(db),
			clear:     db.Clear,
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn("close sqlite", "error", err)
				}
			},
		}, nil

	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s store", config.StorePostgres)
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database connected",
			"max_conns", postgres.MaxConns,
			"min_conns", postgres.MinConns,
			"table", tables.Nodes,
		)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		return &Backend{
			Name:      config.StorePostgres,
			Store:     postgres.NewNodeRepository(repoConfig),
			TxManager: postgres.NewTransactionManager(repoConfig),
			clear: func(ctx context.Context) error {
				return postgres.ClearNodes(ctx, pool, tables)
			},
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s or %s)",
			cfg.Store, config.StoreMemory, config.StoreSQLite, config.StorePostgres)
	}
}
