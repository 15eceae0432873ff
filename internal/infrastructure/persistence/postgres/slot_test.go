package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tally/internal/application/tracker"
	"github.com/rezkam/tally/internal/infrastructure/persistence/compliance"
)

func TestPostgresSlot_Compliance(t *testing.T) {
	dsn := os.Getenv("TALLY_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TALLY_TEST_DB_DSN not set, skipping PostgreSQL tests")
	}

	compliance.RunSlotComplianceTest(t, func(t *testing.T) (compliance.SlotFactory, func()) {
		ctx := context.Background()
		store, err := NewPostgresStore(ctx, dsn)
		require.NoError(t, err)

		// Keys are namespaced per run so parallel packages sharing the database do not collide.
		prefix := uuid.NewString() + ":"
		open := func(key string) tracker.Slot { return store.Slot(prefix + key) }

		cleanup := func() {
			_, err := store.Pool().Exec(ctx, `DELETE FROM task_slots WHERE key LIKE $1`, prefix+"%")
			if err != nil {
				t.Logf("Warning: failed to clean up slots: %v", err)
			}
			store.Close()
		}
		return open, cleanup
	})
}

func TestDBConfig_ApplyDefaults(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://localhost/tally", MaxConns: 10}
	cfg.applyDefaults()

	require.Equal(t, 10, cfg.MaxConns)
	require.Equal(t, DefaultMinConns, cfg.MinConns)
	require.Equal(t, DefaultConnMaxLifetime, cfg.ConnMaxLifetime)
	require.Equal(t, DefaultConnMaxIdleTime, cfg.ConnMaxIdleTime)
}
