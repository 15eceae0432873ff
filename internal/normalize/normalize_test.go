package normalize

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tally/internal/domain"
)

var fixedNow = time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

func TestNormalize_SynthesizesDescendingCreatedAt(t *testing.T) {
	raw := []map[string]any{
		{"id": "a", "title": "First"},
		{"id": "b", "title": "Second"},
		{"id": "c", "title": "Third"},
	}

	tasks := Normalize(raw, fixedNow)
	require.Len(t, tasks, 3)

	assert.Equal(t, fixedNow.Add(-24*time.Hour), tasks[0].CreatedAt)
	assert.Equal(t, fixedNow.Add(-48*time.Hour), tasks[1].CreatedAt)
	assert.Equal(t, fixedNow.Add(-72*time.Hour), tasks[2].CreatedAt)
	for i := 1; i < len(tasks); i++ {
		assert.True(t, tasks[i].CreatedAt.Before(tasks[i-1].CreatedAt),
			"earlier positions must look more recent in legacy data")
	}
}

func TestNormalize_KeepsParseableTimestamps(t *testing.T) {
	raw := []map[string]any{
		{"id": "a", "createdAt": "2026-02-01T08:30:00Z", "completedAt": "2026-02-03T17:00:00+02:00", "status": "Done"},
		{"id": "b", "createdAt": "2026-02-04"},
		{"id": "c", "createdAt": float64(1767225600000)},
	}

	tasks := Normalize(raw, fixedNow)
	require.Len(t, tasks, 3)

	assert.Equal(t, time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC), tasks[0].CreatedAt)
	require.NotNil(t, tasks[0].CompletedAt)
	assert.Equal(t, time.Date(2026, 2, 3, 15, 0, 0, 0, time.UTC), *tasks[0].CompletedAt)
	assert.Equal(t, time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC), tasks[1].CreatedAt)
	assert.Equal(t, time.UnixMilli(1767225600000).UTC(), tasks[2].CreatedAt)
}

func TestNormalize_OutOfRangeTimestampsAreSynthesized(t *testing.T) {
	raw := []map[string]any{
		{"id": "ms", "status": "Done", "createdAt": float64(1e15), "completedAt": float64(1e15)},
		{"id": "huge", "createdAt": float64(1e300)},
		{"id": "year", "createdAt": "10000-01-01T00:00:00Z"},
		{"id": "edge", "createdAt": float64(maxUnixMilli)},
	}

	tasks := Normalize(raw, fixedNow)
	require.Len(t, tasks, 4)

	assert.Equal(t, fixedNow.Add(-24*time.Hour), tasks[0].CreatedAt)
	require.NotNil(t, tasks[0].CompletedAt)
	assert.Equal(t, fixedNow, *tasks[0].CompletedAt, "Done task gets createdAt + 1 day")
	assert.Equal(t, fixedNow.Add(-48*time.Hour), tasks[1].CreatedAt)
	assert.Equal(t, fixedNow.Add(-72*time.Hour), tasks[2].CreatedAt)
	assert.Equal(t, 9999, tasks[3].CreatedAt.Year())

	_, err := json.Marshal(tasks)
	require.NoError(t, err, "normalized tasks must always be persistable")
}

func TestNormalize_CompletedAt(t *testing.T) {
	raw := []map[string]any{
		{"id": "done", "status": "Done", "createdAt": "2026-03-01T00:00:00Z"},
		{"id": "todo", "status": "Todo", "createdAt": "2026-03-01T00:00:00Z"},
		{"id": "reopened", "status": "In Progress", "completedAt": "2026-03-05T00:00:00Z"},
		{"id": "garbage", "status": "Done", "createdAt": "2026-03-01T00:00:00Z", "completedAt": "yesterday"},
	}

	tasks := Normalize(raw, fixedNow)
	require.Len(t, tasks, 4)

	require.NotNil(t, tasks[0].CompletedAt)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *tasks[0].CompletedAt)

	assert.Nil(t, tasks[1].CompletedAt)

	require.NotNil(t, tasks[2].CompletedAt, "sticky completedAt survives a non-Done status")
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), *tasks[2].CompletedAt)

	require.NotNil(t, tasks[3].CompletedAt, "unparseable completedAt is synthesized for Done tasks")
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *tasks[3].CompletedAt)
}

func TestNormalize_NumericCoercion(t *testing.T) {
	tests := []struct {
		name          string
		revenue       any
		timeTaken     any
		wantRevenue   float64
		wantTimeTaken float64
	}{
		{"plain numbers", 120.5, 3.0, 120.5, 3},
		{"numeric strings", "80", " 2.5 ", 80, 2.5},
		{"missing fields", nil, nil, 0, 1},
		{"non-numeric strings", "lots", "forever", 0, 1},
		{"zero time", 10.0, 0.0, 10, 1},
		{"negative values", -50.0, -2.0, 0, 1},
		{"booleans", true, true, 1, 1},
		{"objects", map[string]any{"x": 1}, []any{1}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := map[string]any{"id": "x"}
			if tt.revenue != nil {
				record["revenue"] = tt.revenue
			}
			if tt.timeTaken != nil {
				record["timeTaken"] = tt.timeTaken
			}

			tasks := Normalize([]map[string]any{record}, fixedNow)
			require.Len(t, tasks, 1)
			assert.Equal(t, tt.wantRevenue, tasks[0].Revenue)
			assert.Equal(t, tt.wantTimeTaken, tasks[0].TimeTaken)
		})
	}
}

func TestNormalize_EnumsAndStrings(t *testing.T) {
	raw := []map[string]any{
		{"id": 7, "title": "Seven", "status": "in_progress", "priority": "HIGH", "notes": "n"},
		{"id": "b", "title": 42, "status": "archived", "priority": "urgent"},
	}

	tasks := Normalize(raw, fixedNow)
	require.Len(t, tasks, 2)

	assert.Equal(t, "7", tasks[0].ID)
	assert.Equal(t, domain.TaskStatusInProgress, tasks[0].Status)
	assert.Equal(t, domain.TaskPriorityHigh, tasks[0].Priority)
	assert.Equal(t, "n", tasks[0].Notes)

	assert.Equal(t, "42", tasks[1].Title)
	assert.Equal(t, domain.TaskStatusTodo, tasks[1].Status)
	assert.Equal(t, domain.TaskPriorityMedium, tasks[1].Priority)
}

func TestNormalize_AssignsMissingAndDuplicateIDs(t *testing.T) {
	counter := 0
	original := newID
	newID = func() string {
		counter++
		return fmt.Sprintf("generated-%d", counter)
	}
	t.Cleanup(func() { newID = original })

	raw := []map[string]any{
		{"title": "no id"},
		{"id": "dup", "title": "first"},
		{"id": "dup", "title": "second"},
		{"id": "", "title": "empty id"},
	}

	tasks := Normalize(raw, fixedNow)
	require.Len(t, tasks, 4)

	assert.Equal(t, "generated-1", tasks[0].ID)
	assert.Equal(t, "dup", tasks[1].ID)
	assert.Equal(t, "generated-2", tasks[2].ID)
	assert.Equal(t, "generated-3", tasks[3].ID)
}

func TestNormalize_InvariantsHoldForArbitraryInput(t *testing.T) {
	raw := []map[string]any{
		{},
		{"timeTaken": "-1", "revenue": "NaN"},
		{"timeTaken": "Infinity", "createdAt": 12},
		{"timeTaken": 1e-9},
		{"status": nil, "priority": nil, "createdAt": ""},
	}

	tasks := Normalize(raw, fixedNow)
	require.Len(t, tasks, len(raw))

	ids := make(map[string]bool)
	for _, task := range tasks {
		assert.Greater(t, task.TimeTaken, 0.0)
		assert.False(t, task.CreatedAt.IsZero())
		assert.GreaterOrEqual(t, task.Revenue, 0.0)
		assert.NotEmpty(t, task.ID)
		assert.False(t, ids[task.ID], "ids must be unique")
		ids[task.ID] = true
	}
}

func TestNormalizeJSON(t *testing.T) {
	t.Run("decodes array and skips non-objects", func(t *testing.T) {
		data := []byte(`[{"id":"a","revenue":"12.5","timeTaken":2}, null, 3, {"id":"b"}]`)

		tasks, err := NormalizeJSON(data, fixedNow)
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		assert.Equal(t, "a", tasks[0].ID)
		assert.Equal(t, 12.5, tasks[0].Revenue)
		assert.Equal(t, "b", tasks[1].ID)
		assert.Equal(t, fixedNow.Add(-4*24*time.Hour), tasks[1].CreatedAt, "index of skipped entries still counts")
	})

	t.Run("empty array", func(t *testing.T) {
		tasks, err := NormalizeJSON([]byte(`[]`), fixedNow)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("rejects non-array payloads", func(t *testing.T) {
		for _, payload := range []string{`{"id":"a"}`, `not json`, ``} {
			_, err := NormalizeJSON([]byte(payload), fixedNow)
			assert.ErrorIs(t, err, ErrNotArray, "payload %q", payload)
		}
	})
}
