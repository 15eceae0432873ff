package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/tally/internal/domain"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeSlot is an in-memory Slot with hooks for failure injection.
type fakeSlot struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	loadFn  func(ctx context.Context) ([]byte, error)
	saveErr error

	// honorCtx makes Save fail on a done context like the network back-ends.
	honorCtx bool
}

func (f *fakeSlot) Load(ctx context.Context) ([]byte, error) {
	if f.loadFn != nil {
		return f.loadFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil, domain.ErrSlotEmpty
	}
	return append([]byte(nil), f.data...), nil
}

func (f *fakeSlot) Save(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.honorCtx {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	f.data = append([]byte(nil), data...)
	return nil
}

func (f *fakeSlot) Delete(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
	return nil
}

func (f *fakeSlot) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// stored decodes the last persisted payload.
func (f *fakeSlot) stored(t *testing.T) []domain.Task {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotNil(t, f.data, "slot has never been written")

	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(f.data, &tasks))
	return tasks
}

type fakeSeed struct {
	fetchFn func(ctx context.Context) ([]byte, error)
	calls   int
}

func (f *fakeSeed) Fetch(ctx context.Context) ([]byte, error) {
	f.calls++
	if f.fetchFn == nil {
		return nil, fmt.Errorf("unexpected Fetch call")
	}
	return f.fetchFn(ctx)
}

type fakeGenerator struct {
	requested int
}

func (f *fakeGenerator) Generate(count int) []domain.Task {
	f.requested = count
	tasks := make([]domain.Task, count)
	for i := range tasks {
		tasks[i] = domain.Task{
			ID:        fmt.Sprintf("gen-%d", i),
			Title:     fmt.Sprintf("Generated %d", i),
			Revenue:   float64(100 * (i + 1)),
			TimeTaken: float64(i + 1),
			Priority:  domain.TaskPriorityMedium,
			Status:    domain.TaskStatusTodo,
			CreatedAt: testNow.Add(-time.Duration(i) * time.Hour),
		}
	}
	return tasks
}

// sequentialIDs returns an ID factory producing id-1, id-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newLoadedSession returns a session already loaded from a slot holding tasks.
func newLoadedSession(t *testing.T, tasks []domain.Task, cfg Config) (*Session, *fakeSlot) {
	t.Helper()

	data, err := json.Marshal(tasks)
	require.NoError(t, err)
	slot := &fakeSlot{data: data}

	session := NewSession(slot, nil, &fakeGenerator{}, cfg,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()))
	t.Cleanup(session.Close)

	source, err := session.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, SourceSlot, source)
	return session, slot
}
