package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/ptr"
)

func sampleTasks() []domain.Task {
	return []domain.Task{
		{
			ID: "a", Title: "Write report", Revenue: 500, TimeTaken: 2,
			Priority: domain.TaskPriorityHigh, Status: domain.TaskStatusTodo,
			CreatedAt: testNow.Add(-48 * time.Hour),
		},
		{
			ID: "b", Title: "Review PR", Revenue: 100, TimeTaken: 1,
			Priority: domain.TaskPriorityLow, Status: domain.TaskStatusInProgress,
			CreatedAt: testNow.Add(-24 * time.Hour),
		},
		{
			ID: "c", Title: "Ship release", Revenue: 900, TimeTaken: 3,
			Priority: domain.TaskPriorityMedium, Status: domain.TaskStatusDone,
			CreatedAt:   testNow.Add(-72 * time.Hour),
			CompletedAt: ptr.To(testNow.Add(-12 * time.Hour)),
		},
	}
}

func TestAddTask(t *testing.T) {
	t.Run("clamps zero time taken to one", func(t *testing.T) {
		session, slot := newLoadedSession(t, sampleTasks(), Config{})

		added := session.AddTask(context.Background(), domain.Task{
			Title: "Zero effort", Revenue: 50, TimeTaken: 0,
			Priority: domain.TaskPriorityLow, Status: domain.TaskStatusTodo,
		})

		assert.Equal(t, 1.0, added.TimeTaken)
		stored := slot.stored(t)
		require.Len(t, stored, 4)
		assert.Equal(t, 1.0, stored[3].TimeTaken)
	})

	t.Run("assigns id and timestamps", func(t *testing.T) {
		session, _ := newLoadedSession(t, nil, Config{})

		added := session.AddTask(context.Background(), domain.Task{
			Title: "New", Revenue: 10, TimeTaken: 2,
			Priority: domain.TaskPriorityHigh, Status: domain.TaskStatusTodo,
			CreatedAt: testNow.Add(-1000 * time.Hour),
		})

		assert.Equal(t, "id-1", added.ID)
		assert.Equal(t, testNow, added.CreatedAt, "createdAt is always stamped now")
		assert.Nil(t, added.CompletedAt)
	})

	t.Run("done task gets completedAt", func(t *testing.T) {
		session, _ := newLoadedSession(t, nil, Config{})

		added := session.AddTask(context.Background(), domain.Task{
			Title: "Already done", Revenue: 10, TimeTaken: 1,
			Priority: domain.TaskPriorityHigh, Status: domain.TaskStatusDone,
		})

		require.NotNil(t, added.CompletedAt)
		assert.Equal(t, testNow, *added.CompletedAt)
	})

	t.Run("non-done task drops completedAt", func(t *testing.T) {
		session, _ := newLoadedSession(t, nil, Config{})

		added := session.AddTask(context.Background(), domain.Task{
			Title: "Todo", Revenue: 10, TimeTaken: 1,
			Priority: domain.TaskPriorityHigh, Status: domain.TaskStatusTodo,
			CompletedAt: ptr.To(testNow),
		})

		assert.Nil(t, added.CompletedAt)
	})

	t.Run("existing id replaces task", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{})

		session.AddTask(context.Background(), domain.Task{
			ID: "a", Title: "Rewritten", Revenue: 1, TimeTaken: 1,
			Priority: domain.TaskPriorityLow, Status: domain.TaskStatusTodo,
		})

		tasks := session.Tasks()
		require.Len(t, tasks, 3)
		assert.Equal(t, "a", tasks[2].ID)
		assert.Equal(t, "Rewritten", tasks[2].Title)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Run("moving to done sets completedAt", func(t *testing.T) {
		session, slot := newLoadedSession(t, sampleTasks(), Config{})

		updated, ok := session.UpdateTask(context.Background(), "a", domain.TaskPatch{
			Status: ptr.To(domain.TaskStatusDone),
		})

		require.True(t, ok)
		assert.Equal(t, domain.TaskStatusDone, updated.Status)
		require.NotNil(t, updated.CompletedAt)
		assert.Equal(t, testNow, *updated.CompletedAt)

		stored := slot.stored(t)
		require.Len(t, stored, 3)
		assert.Equal(t, domain.TaskStatusDone, stored[0].Status)
		assert.NotNil(t, stored[0].CompletedAt)
	})

	t.Run("keeps existing completedAt", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{})

		updated, ok := session.UpdateTask(context.Background(), "c", domain.TaskPatch{
			Title: ptr.To("Ship release v2"),
		})

		require.True(t, ok)
		require.NotNil(t, updated.CompletedAt)
		assert.Equal(t, testNow.Add(-12*time.Hour), *updated.CompletedAt)
	})

	t.Run("re-clamps time taken", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{})

		updated, ok := session.UpdateTask(context.Background(), "b", domain.TaskPatch{
			TimeTaken: ptr.To(-5.0),
		})

		require.True(t, ok)
		assert.Equal(t, 1.0, updated.TimeTaken)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		session, slot := newLoadedSession(t, sampleTasks(), Config{})
		before := session.Tasks()

		_, ok := session.UpdateTask(context.Background(), "missing", domain.TaskPatch{
			Title: ptr.To("nope"),
		})

		assert.False(t, ok)
		assert.Equal(t, before, session.Tasks())
		assert.Zero(t, slot.saveCount())
	})

	t.Run("preserves position", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{})

		session.UpdateTask(context.Background(), "b", domain.TaskPatch{Revenue: ptr.To(2000.0)})

		tasks := session.Tasks()
		assert.Equal(t, []string{"a", "b", "c"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	})
}

func TestDeleteAndUndo(t *testing.T) {
	t.Run("undo restores deleted task at the end", func(t *testing.T) {
		session, slot := newLoadedSession(t, sampleTasks(), Config{UndoWindow: -1})
		original, _ := session.Task("a")

		deleted, ok := session.DeleteTask(context.Background(), "a")
		require.True(t, ok)
		assert.Equal(t, original, deleted)
		assert.Len(t, slot.stored(t), 2)

		buffered, ok := session.LastDeleted()
		require.True(t, ok)
		assert.Equal(t, "a", buffered.ID)

		restored, ok := session.UndoDelete(context.Background())
		require.True(t, ok)
		assert.Equal(t, original, restored)

		tasks := session.Tasks()
		require.Len(t, tasks, 3)
		assert.Equal(t, original, tasks[2])
		assert.Len(t, slot.stored(t), 3)

		_, ok = session.LastDeleted()
		assert.False(t, ok, "undo clears the buffer")
	})

	t.Run("undo with empty buffer", func(t *testing.T) {
		session, slot := newLoadedSession(t, sampleTasks(), Config{})

		_, ok := session.UndoDelete(context.Background())

		assert.False(t, ok)
		assert.Zero(t, slot.saveCount())
	})

	t.Run("second delete overwrites the buffer", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{UndoWindow: -1})

		session.DeleteTask(context.Background(), "a")
		session.DeleteTask(context.Background(), "b")

		restored, ok := session.UndoDelete(context.Background())
		require.True(t, ok)
		assert.Equal(t, "b", restored.ID)
		_, ok = session.Task("a")
		assert.False(t, ok)
	})

	t.Run("unknown id clears the buffer", func(t *testing.T) {
		session, slot := newLoadedSession(t, sampleTasks(), Config{UndoWindow: -1})
		session.DeleteTask(context.Background(), "a")
		saves := slot.saveCount()

		_, ok := session.DeleteTask(context.Background(), "missing")

		assert.False(t, ok)
		_, buffered := session.LastDeleted()
		assert.False(t, buffered)
		assert.Len(t, session.Tasks(), 2)
		assert.Equal(t, saves, slot.saveCount())
	})

	t.Run("clear last deleted is idempotent", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{UndoWindow: -1})
		session.DeleteTask(context.Background(), "a")

		session.ClearLastDeleted()
		session.ClearLastDeleted()

		_, ok := session.LastDeleted()
		assert.False(t, ok)
		_, ok = session.UndoDelete(context.Background())
		assert.False(t, ok)
		assert.Len(t, session.Tasks(), 2)
	})

	t.Run("buffer expires after the undo window", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{UndoWindow: 20 * time.Millisecond})

		session.DeleteTask(context.Background(), "a")
		_, ok := session.LastDeleted()
		require.True(t, ok)

		require.Eventually(t, func() bool {
			_, ok := session.LastDeleted()
			return !ok
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("stale timer does not clear a newer delete", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{UndoWindow: 50 * time.Millisecond})

		session.DeleteTask(context.Background(), "a")
		time.Sleep(30 * time.Millisecond)
		session.DeleteTask(context.Background(), "b")
		time.Sleep(30 * time.Millisecond)

		buffered, ok := session.LastDeleted()
		require.True(t, ok, "second delete restarted the window")
		assert.Equal(t, "b", buffered.ID)
	})

	t.Run("undo replaces a task re-added under the same id", func(t *testing.T) {
		session, _ := newLoadedSession(t, sampleTasks(), Config{UndoWindow: -1})
		original, _ := session.Task("a")

		session.DeleteTask(context.Background(), "a")
		session.AddTask(context.Background(), domain.Task{
			ID: "a", Title: "Impostor", Revenue: 1, TimeTaken: 1,
			Priority: domain.TaskPriorityLow, Status: domain.TaskStatusTodo,
		})
		session.UndoDelete(context.Background())

		tasks := session.Tasks()
		require.Len(t, tasks, 3)
		assert.Equal(t, original, tasks[2])
	})
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	session, slot := newLoadedSession(t, sampleTasks(), Config{})
	slot.saveErr = errors.New("disk full")

	added := session.AddTask(context.Background(), domain.Task{
		Title: "Unsaved", Revenue: 1, TimeTaken: 1,
		Priority: domain.TaskPriorityLow, Status: domain.TaskStatusTodo,
	})

	got, ok := session.Task(added.ID)
	require.True(t, ok)
	assert.Equal(t, "Unsaved", got.Title)
	assert.Equal(t, 1, slot.saveCount())
}

func TestPersistIgnoresCallerCancellation(t *testing.T) {
	session, slot := newLoadedSession(t, sampleTasks(), Config{UndoWindow: -1})
	slot.honorCtx = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	added := session.AddTask(ctx, domain.Task{
		Title: "Client went away", Revenue: 5, TimeTaken: 1,
		Priority: domain.TaskPriorityLow, Status: domain.TaskStatusTodo,
	})
	_, ok := session.UpdateTask(ctx, added.ID, domain.TaskPatch{Notes: ptr.To("still saved")})
	require.True(t, ok)
	_, ok = session.DeleteTask(ctx, "a")
	require.True(t, ok)

	ids := func(tasks []domain.Task) []string {
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.ID
		}
		return out
	}
	stored := slot.stored(t)
	assert.Equal(t, []string{"b", "c", added.ID}, ids(stored), "slot must not lag memory after a cancelled request")
	assert.Equal(t, ids(session.Tasks()), ids(stored))
	assert.Equal(t, "still saved", stored[2].Notes)
}

func TestTasksReturnsCopies(t *testing.T) {
	session, _ := newLoadedSession(t, sampleTasks(), Config{})

	tasks := session.Tasks()
	tasks[0].Title = "mutated"
	*tasks[2].CompletedAt = time.Time{}

	fresh := session.Tasks()
	assert.Equal(t, "Write report", fresh[0].Title)
	assert.Equal(t, testNow.Add(-12*time.Hour), *fresh[2].CompletedAt)
}

func TestDerivedAndMetrics(t *testing.T) {
	session, _ := newLoadedSession(t, sampleTasks(), Config{})

	derived := session.Derived()
	require.Len(t, derived, 3)
	// ROI: a=250, c=300, b=100
	assert.Equal(t, "c", derived[0].ID)
	assert.Equal(t, "a", derived[1].ID)
	assert.Equal(t, "b", derived[2].ID)

	metrics := session.Metrics()
	assert.Equal(t, 1500.0, metrics.TotalRevenue)
	assert.Equal(t, 6.0, metrics.TotalTimeTaken)
	assert.Equal(t, 3, metrics.TaskCount)
	assert.Equal(t, 1, metrics.DoneCount)
}

func TestConcurrentMutations(t *testing.T) {
	session, slot := newLoadedSession(t, nil, Config{UndoWindow: -1})

	const workers = 16
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := session.AddTask(context.Background(), domain.Task{
				Title: fmt.Sprintf("Task %d", i), Revenue: 10, TimeTaken: 1,
				Priority: domain.TaskPriorityMedium, Status: domain.TaskStatusTodo,
			})
			session.UpdateTask(context.Background(), task.ID, domain.TaskPatch{
				Status: ptr.To(domain.TaskStatusInProgress),
			})
			_ = session.Metrics()
		}()
	}
	wg.Wait()

	assert.Len(t, session.Tasks(), workers)
	assert.Len(t, slot.stored(t), workers)
}
