// Package persistence opens the tracker.Slot back-end selected by configuration.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rezkam/tally/internal/application/tracker"
	"github.com/rezkam/tally/internal/config"
	"github.com/rezkam/tally/internal/infrastructure/persistence/fs"
	"github.com/rezkam/tally/internal/infrastructure/persistence/gcs"
	"github.com/rezkam/tally/internal/infrastructure/persistence/memory"
	"github.com/rezkam/tally/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/tally/internal/infrastructure/persistence/redis"
	"github.com/rezkam/tally/internal/infrastructure/persistence/sqlite"
)

// OpenSlot opens the configured back-end and returns the slot for cfg.SlotKey
// along with a function releasing the back-end's resources.
func OpenSlot(ctx context.Context, cfg config.StorageConfig) (tracker.Slot, func(), error) {
	noop := func() {}

	switch cfg.Type {
	case config.StorageFS:
		store, err := fs.NewStore(cfg.FSDir)
		if err != nil {
			return nil, nil, err
		}
		slot, err := store.Slot(cfg.SlotKey)
		if err != nil {
			return nil, nil, err
		}
		return slot, noop, nil

	case config.StorageSQLite:
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store.Slot(cfg.SlotKey), closer(ctx, "sqlite", store.Close), nil

	case config.StoragePostgres:
		store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store.Slot(cfg.SlotKey), closer(ctx, "postgres", store.Close), nil

	case config.StorageRedis:
		store, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return store.Slot(cfg.SlotKey), closer(ctx, "redis", store.Close), nil

	case config.StorageGCS:
		store, err := gcs.NewStore(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gcs store: %w", err)
		}
		return store.Slot(cfg.SlotKey), closer(ctx, "gcs", store.Close), nil

	case config.StorageMemory:
		return memory.NewStore().Slot(cfg.SlotKey), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

func closer(ctx context.Context, backend string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			slog.ErrorContext(ctx, "Failed to close storage", "backend", backend, "error", err)
		}
	}
}
