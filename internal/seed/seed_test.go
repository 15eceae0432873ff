package seed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/normalize"
)

func TestEmbeddedSource(t *testing.T) {
	data, err := NewEmbeddedSource().Fetch(context.Background())
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	assert.NotEmpty(t, records)

	tasks, err := normalize.NormalizeJSON(data, time.Now())
	require.NoError(t, err)
	require.Len(t, tasks, len(records))

	ids := make(map[string]bool)
	for _, task := range tasks {
		assert.Greater(t, task.TimeTaken, 0.0, task.Title)
		assert.GreaterOrEqual(t, task.Revenue, 0.0, task.Title)
		assert.False(t, ids[task.ID], "duplicate id %s", task.ID)
		ids[task.ID] = true
	}
}

func TestEmbeddedSource_ReturnsCopy(t *testing.T) {
	first, err := NewEmbeddedSource().Fetch(context.Background())
	require.NoError(t, err)
	first[0] = 'X'

	second, err := NewEmbeddedSource().Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte('['), second[0])
}

func TestEmbeddedSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddedSource().Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "ok", status: http.StatusOK, body: `[{"title":"Remote"}]`},
		{name: "not found", status: http.StatusNotFound, body: "missing", wantErr: "status 404"},
		{name: "server error", status: http.StatusInternalServerError, wantErr: "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			data, err := NewHTTPSource(server.URL).Fetch(context.Background())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.body, string(data))
		})
	}
}

func TestHTTPSource_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat(" ", maxSeedBytes+10)))
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, WithHTTPClient(server.Client())).Fetch(context.Background())
	require.ErrorIs(t, err, ErrSeedTooLarge)
}

func TestHTTPSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPSource(url).Fetch(context.Background())
	require.Error(t, err)
}

func TestGenerator(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	gen := NewGenerator(WithSeed(42), WithNow(func() time.Time { return now }))

	tasks := gen.Generate(20)
	require.Len(t, tasks, 20)

	titles := make(map[string]bool)
	ids := make(map[string]bool)
	for _, task := range tasks {
		assert.False(t, titles[task.Title], "duplicate title %q", task.Title)
		assert.False(t, ids[task.ID], "duplicate id %q", task.ID)
		titles[task.Title] = true
		ids[task.ID] = true

		assert.Greater(t, task.TimeTaken, 0.0)
		assert.GreaterOrEqual(t, task.Revenue, 50.0)
		assert.Contains(t, domain.TaskStatuses, task.Status)
		assert.Contains(t, domain.TaskPriorities, task.Priority)
		assert.False(t, task.CreatedAt.After(now))

		if task.IsDone() {
			require.NotNil(t, task.CompletedAt)
			assert.False(t, task.CompletedAt.Before(task.CreatedAt))
			assert.False(t, task.CompletedAt.After(now))
		} else {
			assert.Nil(t, task.CompletedAt)
		}
	}
}

func TestGenerator_TitlesStayUniqueBeyondCombinations(t *testing.T) {
	count := len(verbs)*len(subjects) + 5
	tasks := NewGenerator(WithSeed(7)).Generate(count)

	seen := make(map[string]bool, count)
	for _, task := range tasks {
		require.False(t, seen[task.Title], "duplicate title %q", task.Title)
		seen[task.Title] = true
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	a := NewGenerator(WithSeed(1), WithNow(now)).Generate(5)
	b := NewGenerator(WithSeed(1), WithNow(now)).Generate(5)

	for i := range a {
		assert.Equal(t, a[i].Title, b[i].Title)
		assert.Equal(t, a[i].Revenue, b[i].Revenue)
	}
}

func TestGenerator_NonPositiveCount(t *testing.T) {
	assert.Empty(t, NewGenerator().Generate(0))
	assert.Empty(t, NewGenerator().Generate(-3))
}
