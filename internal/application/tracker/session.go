// Package tracker owns the task list of one client session: CRUD with a
// single-slot undo buffer, synchronous persistence to a Slot, and the
// three-tier initial load (persisted slot, seed resource, generated batch).
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/rezkam/tally/internal/analytics"
	"github.com/rezkam/tally/internal/domain"
)

const instrumentationName = "github.com/rezkam/tally/internal/application/tracker"

// Default configuration values.
const (
	DefaultGenerateCount = 20
	DefaultUndoWindow    = 4 * time.Second
)

// ErrSessionClosed is returned by Load once Close has been called.
var ErrSessionClosed = errors.New("session closed")

// Config holds configuration for a Session.
type Config struct {
	// GenerateCount is the size of the synthetic batch used when neither the
	// slot nor the seed resource yields tasks.
	GenerateCount int

	// UndoWindow is how long a deleted task stays restorable before the
	// buffer is cleared automatically. Negative disables automatic expiry.
	UndoWindow time.Duration
}

// Source identifies which load tier produced the session's initial state.
type Source string

const (
	SourceSlot      Source = "slot"
	SourceSeed      Source = "seed"
	SourceGenerated Source = "generated"
)

// Option customizes a Session.
type Option func(*Session)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides the factory used for new task IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// Session is the owned state of one active view: the task list, the undo
// buffer and the collaborators used to load and persist them.
// It is safe for concurrent use.
type Session struct {
	slot      Slot
	seed      SeedSource
	generator Generator
	config    Config
	now       func() time.Time
	newID     func() string

	tracer          trace.Tracer
	mutations       metric.Int64Counter
	persistFailures metric.Int64Counter

	mu          sync.RWMutex
	tasks       []domain.Task
	lastDeleted *domain.Task
	deleteSeq   uint64
	undoTimer   *time.Timer
	loaded      bool
	closed      bool
	source      Source
}

// NewSession creates a session. Call Load before using it and Close when the
// owning view goes away.
// Applies defaults for zero config values.
func NewSession(slot Slot, seed SeedSource, generator Generator, config Config, opts ...Option) *Session {
	if config.GenerateCount <= 0 {
		config.GenerateCount = DefaultGenerateCount
	}
	if config.UndoWindow == 0 {
		config.UndoWindow = DefaultUndoWindow
	}

	s := &Session{
		slot:      slot,
		seed:      seed,
		generator: generator,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newTaskID,
		tracer:    otel.Tracer(instrumentationName),
		tasks:     []domain.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.mutations, err = meter.Int64Counter("tally.tasks.mutations",
		metric.WithDescription("Task mutations applied to the session"))
	if err != nil {
		s.mutations = noop.Int64Counter{}
	}
	s.persistFailures, err = meter.Int64Counter("tally.persist.failures",
		metric.WithDescription("Slot writes that failed and were swallowed"))
	if err != nil {
		s.persistFailures = noop.Int64Counter{}
	}

	return s
}

func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Close tears the session down. A Load still in flight discards its result.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.undoTimer != nil {
		s.undoTimer.Stop()
		s.undoTimer = nil
	}
}

// Source reports which tier produced the initial state. Empty until loaded.
func (s *Session) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Tasks returns a copy of the current task list in stored order.
func (s *Session) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Task returns the task with the given ID.
func (s *Session) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// Derived returns the current tasks annotated and sorted for display.
func (s *Session) Derived() []analytics.DerivedTask {
	return analytics.Derive(s.Tasks())
}

// Metrics returns the aggregate metrics over the current tasks.
func (s *Session) Metrics() analytics.Metrics {
	return analytics.Compute(s.Tasks())
}

// AddTask appends candidate to the list and persists it.
//
// The candidate's ID is kept when set (the edit-via-resubmit path); a task
// already carrying that ID is replaced so IDs stay unique. TimeTaken is
// clamped, CreatedAt is always stamped now and CompletedAt is now for Done
// tasks and unset otherwise.
func (s *Session) AddTask(ctx context.Context, candidate domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	task := candidate.Clone()
	if task.ID == "" {
		task.ID = s.newID()
	}
	task.TimeTaken = domain.ClampTimeTaken(task.TimeTaken)
	task.CreatedAt = now
	task.CompletedAt = nil
	if task.IsDone() {
		completed := now
		task.CompletedAt = &completed
	}

	if i := s.indexOf(task.ID); i >= 0 {
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	s.tasks = append(s.tasks, task)

	s.recordMutation(ctx, "add")
	s.persistLocked(ctx, "add")

	slog.DebugContext(ctx, "task added", "task_id", task.ID)
	return task.Clone()
}

// UpdateTask merge-patches the task with the given ID (see domain.MergeTask)
// and persists the list. Returns false, changing nothing, if the ID is unknown.
func (s *Session) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}

	updated := domain.MergeTask(s.tasks[i], patch, s.now())
	s.tasks[i] = updated

	s.recordMutation(ctx, "update")
	s.persistLocked(ctx, "update")

	slog.DebugContext(ctx, "task updated", "task_id", id)
	return updated.Clone(), true
}

// DeleteTask removes the task with the given ID and places it in the undo
// buffer, overwriting whatever was buffered. When the ID is unknown the list
// is left alone and the buffer is cleared.
func (s *Session) DeleteTask(ctx context.Context, id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteSeq++
	i := s.indexOf(id)
	if i < 0 {
		s.lastDeleted = nil
		return domain.Task{}, false
	}

	removed := s.tasks[i]
	s.tasks = slices.Delete(s.tasks, i, i+1)
	s.lastDeleted = &removed
	s.armUndoExpiryLocked(s.deleteSeq)

	s.recordMutation(ctx, "delete")
	s.persistLocked(ctx, "delete")

	slog.DebugContext(ctx, "task deleted", "task_id", id)
	return removed.Clone(), true
}

// UndoDelete re-appends the buffered task to the end of the list, clears the
// buffer and persists. Returns false if the buffer is empty.
func (s *Session) UndoDelete(ctx context.Context) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastDeleted == nil {
		return domain.Task{}, false
	}

	restored := *s.lastDeleted
	s.lastDeleted = nil
	if i := s.indexOf(restored.ID); i >= 0 {
		// The restored task replaces anything re-added under its ID since the delete.
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	s.tasks = append(s.tasks, restored)

	s.recordMutation(ctx, "undo")
	s.persistLocked(ctx, "undo")

	slog.DebugContext(ctx, "task restored", "task_id", restored.ID)
	return restored.Clone(), true
}

// ClearLastDeleted empties the undo buffer without restoring anything.
func (s *Session) ClearLastDeleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDeleted = nil
}

// LastDeleted returns the buffered task, if any.
func (s *Session) LastDeleted() (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastDeleted == nil {
		return domain.Task{}, false
	}
	return s.lastDeleted.Clone(), true
}

// armUndoExpiryLocked clears the buffer after the undo window unless another
// delete happened in between.
func (s *Session) armUndoExpiryLocked(seq uint64) {
	if s.config.UndoWindow < 0 || s.closed {
		return
	}
	if s.undoTimer != nil {
		s.undoTimer.Stop()
	}
	s.undoTimer = time.AfterFunc(s.config.UndoWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.deleteSeq == seq {
			s.lastDeleted = nil
		}
	})
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
}

func (s *Session) recordMutation(ctx context.Context, op string) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// persistLocked writes the whole list to the slot. Failures are logged and
// counted but never returned: in-memory state stays authoritative.
// The write ignores cancellation of ctx because the mutation it records has
// already been applied.
func (s *Session) persistLocked(ctx context.Context, op string) {
	data, err := json.Marshal(s.tasks)
	if err == nil {
		err = s.slot.Save(context.WithoutCancel(ctx), data)
	}
	if err != nil {
		s.persistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
		slog.ErrorContext(ctx, "failed to persist tasks",
			"op", op,
			"task_count", len(s.tasks),
			"error", err)
	}
}
