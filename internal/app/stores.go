package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"travel-price-watch/internal/config"
	"travel-price-watch/internal/storage"
	chstore "travel-price-watch/internal/storage/clickhouse"
	"travel-price-watch/internal/storage/memory"
	"travel-price-watch/internal/storage/migrations"
	pgstore "travel-price-watch/internal/storage/postgres"
	"travel-price-watch/internal/storage/sqlite"
)

// Stores holds the storage implementations selected by configuration.
type Stores struct {
	Users   storage.UserStore
	Items   storage.TrackedItemStore
	History storage.PriceHistoryStore
}

// createStores opens the configured product database and, when a
// ClickHouse DSN is set, routes price history to ClickHouse instead.
func createStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Stores, func(), error) {
	var (
		stores  *Stores
		cleanup []func()
	)
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	switch cfg.Driver {
	case config.DriverMemory:
		stores = &Stores{
			Users:   memory.NewUserStore(),
			Items:   memory.NewTrackedItemStore(),
			History: memory.NewPriceHistoryStore(),
		}

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanup = append(cleanup, pool.Close)

		if cfg.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				closeAll()
				return nil, nil, err
			}
		}
		stores = &Stores{
			Users:   pgstore.NewUserStore(pool),
			Items:   pgstore.NewTrackedItemStore(pool),
			History: pgstore.NewPriceHistoryStore(pool),
		}

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		cleanup = append(cleanup, func() { db.Close() })

		if cfg.Migrate {
			if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
				closeAll()
				return nil, nil, err
			}
		}
		stores = &Stores{
			Users:   sqlite.NewUserStore(db),
			Items:   sqlite.NewTrackedItemStore(db),
			History: sqlite.NewPriceHistoryStore(db),
		}

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if cfg.ClickhouseDSN != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		cleanup = append(cleanup, func() { conn.Close() })
		stores.History = chstore.NewPriceHistoryStore(conn)
	}

	logger.Info("storage ready",
		zap.String("op", "app.createStores"),
		zap.String("driver", cfg.Driver),
		zap.Bool("clickhouse_history", cfg.ClickhouseDSN != ""),
	)

	return stores, closeAll, nil
}
