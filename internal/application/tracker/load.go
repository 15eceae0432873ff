package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/normalize"
)

// Load establishes the session's initial state. It runs once; later calls
// return the original source without touching storage.
//
// Tiers, first success wins:
//  1. the persisted slot, when present and parseable (an empty list counts);
//  2. the seed resource, when it yields a non-empty list;
//  3. a generated batch of Config.GenerateCount tasks.
//
// Tiers 2 and 3 persist what they adopt. Failures inside a tier are logged and
// fall through to the next one, so Load only fails when ctx is done or the
// session was closed before the tiers completed; the result is then discarded.
func (s *Session) Load(ctx context.Context) (Source, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.Load")
	defer span.End()

	s.mu.RLock()
	loaded, closed, source := s.loaded, s.closed, s.source
	s.mu.RUnlock()
	if closed {
		return "", ErrSessionClosed
	}
	if loaded {
		return source, nil
	}

	tasks, source := s.resolve(ctx)

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load cancelled")
		slog.WarnContext(ctx, "discarding load result, context done", "source", source, "error", err)
		return "", fmt.Errorf("load cancelled: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		slog.WarnContext(ctx, "discarding load result, session closed", "source", source)
		return "", ErrSessionClosed
	}
	if s.loaded {
		return s.source, nil
	}

	s.tasks = tasks
	s.source = source
	s.loaded = true
	if source != SourceSlot {
		s.persistLocked(ctx, "load")
	}

	span.SetAttributes(
		attribute.String("tally.load.source", string(source)),
		attribute.Int("tally.load.tasks", len(tasks)),
	)
	slog.InfoContext(ctx, "tasks loaded", "source", source, "task_count", len(tasks))

	return source, nil
}

// Reset discards persisted and in-memory state, then reloads from the seed
// resource or the generator.
func (s *Session) Reset(ctx context.Context) (Source, error) {
	if err := s.slot.Delete(ctx); err != nil {
		return "", fmt.Errorf("failed to clear slot: %w", err)
	}

	s.mu.Lock()
	s.tasks = []domain.Task{}
	s.lastDeleted = nil
	s.loaded = false
	s.source = ""
	s.mu.Unlock()

	return s.Load(ctx)
}

// resolve walks the load tiers without holding the lock.
func (s *Session) resolve(ctx context.Context) ([]domain.Task, Source) {
	now := s.now()

	data, err := s.slot.Load(ctx)
	switch {
	case err == nil:
		tasks, err := normalize.NormalizeJSON(data, now)
		if err == nil {
			return tasks, SourceSlot
		}
		slog.WarnContext(ctx, "persisted tasks unreadable, falling back to seed", "error", err)
	case errors.Is(err, domain.ErrSlotEmpty):
		slog.DebugContext(ctx, "no persisted tasks")
	default:
		slog.WarnContext(ctx, "failed to read persisted tasks, falling back to seed", "error", err)
	}

	if s.seed != nil {
		tasks, err := s.fetchSeed(ctx)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "seed fetch failed, generating tasks", "error", err)
		case len(tasks) == 0:
			slog.InfoContext(ctx, "seed resource is empty, generating tasks")
		default:
			return tasks, SourceSeed
		}
	}

	var generated []domain.Task
	if s.generator != nil {
		generated = s.generator.Generate(s.config.GenerateCount)
	}
	tasks := make([]domain.Task, 0, len(generated))
	for _, t := range generated {
		t.TimeTaken = domain.ClampTimeTaken(t.TimeTaken)
		tasks = append(tasks, t)
	}
	return tasks, SourceGenerated
}

func (s *Session) fetchSeed(ctx context.Context) ([]domain.Task, error) {
	data, err := s.seed.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.NormalizeJSON(data, s.now())
}
