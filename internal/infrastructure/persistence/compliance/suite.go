// Package compliance holds the behavioural test suite every tracker.Slot
// implementation must pass.
package compliance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tally/internal/application/tracker"
	"github.com/rezkam/tally/internal/domain"
)

// SlotFactory opens the slot stored under key on a shared backend.
type SlotFactory func(key string) tracker.Slot

// RunSlotComplianceTest runs the standard slot tests.
// setup returns a factory over a fresh (clean) backend and a cleanup func.
func RunSlotComplianceTest(t *testing.T, setup func(t *testing.T) (SlotFactory, func())) {
	t.Run("LoadEmpty", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()

		_, err := open("empty").Load(context.Background())
		require.ErrorIs(t, err, domain.ErrSlotEmpty)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()
		ctx := context.Background()
		slot := open("tasks")

		payload := []byte(`[{"id":"a","title":"First","revenue":10,"timeTaken":1}]`)
		require.NoError(t, slot.Save(ctx, payload))

		got, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("SaveEmptyList", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()
		ctx := context.Background()
		slot := open("tasks")

		require.NoError(t, slot.Save(ctx, []byte(`[]`)))

		got, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte(`[]`), got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()
		ctx := context.Background()
		slot := open("tasks")

		require.NoError(t, slot.Save(ctx, []byte(`[{"id":"old"}]`)))
		require.NoError(t, slot.Save(ctx, []byte(`[{"id":"new"}]`)))

		got, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"new"}]`, string(got))
	})

	t.Run("Delete", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()
		ctx := context.Background()
		slot := open("tasks")

		require.NoError(t, slot.Save(ctx, []byte(`[]`)))
		require.NoError(t, slot.Delete(ctx))

		_, err := slot.Load(ctx)
		require.ErrorIs(t, err, domain.ErrSlotEmpty)

		require.NoError(t, slot.Delete(ctx), "deleting an empty slot is not an error")
	})

	t.Run("KeysAreIsolated", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		require.NoError(t, open("alpha").Save(ctx, []byte(`["alpha"]`)))
		require.NoError(t, open("beta").Save(ctx, []byte(`["beta"]`)))
		require.NoError(t, open("beta").Delete(ctx))

		got, err := open("alpha").Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, `["alpha"]`, string(got))

		_, err = open("beta").Load(ctx)
		require.ErrorIs(t, err, domain.ErrSlotEmpty)
	})

	t.Run("LargePayload", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()
		ctx := context.Background()
		slot := open("tasks")

		records := make([]string, 2000)
		for i := range records {
			records[i] = fmt.Sprintf(`{"id":"%d","title":"Task number %d","revenue":%d,"timeTaken":1}`, i, i, i*10)
		}
		payload := []byte("[" + strings.Join(records, ",") + "]")

		require.NoError(t, slot.Save(ctx, payload))

		got, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("ConcurrentSavesAreNotTorn", func(t *testing.T) {
		open, teardown := setup(t)
		defer teardown()
		ctx := context.Background()
		slot := open("tasks")

		const writers = 8
		payloads := make(map[string]bool, writers)
		for i := range writers {
			payloads[fmt.Sprintf(`[{"id":"writer-%d","title":"%s"}]`, i, strings.Repeat("x", 512))] = true
		}

		var wg sync.WaitGroup
		for p := range payloads {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, slot.Save(ctx, []byte(p)))
			}()
		}
		wg.Wait()

		got, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.True(t, payloads[string(got)], "stored payload must be one complete write, got %q", got)
	})
}
