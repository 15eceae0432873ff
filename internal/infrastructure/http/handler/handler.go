// Package handler exposes a tracker session over a JSON HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/tally/internal/analytics"
	"github.com/rezkam/tally/internal/domain"
)

// Tracker is the subset of tracker.Session the handlers drive.
type Tracker interface {
	Tasks() []domain.Task
	Task(id string) (domain.Task, bool)
	Metrics() analytics.Metrics
	AddTask(ctx context.Context, candidate domain.Task) domain.Task
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool)
	DeleteTask(ctx context.Context, id string) (domain.Task, bool)
	UndoDelete(ctx context.Context) (domain.Task, bool)
	LastDeleted() (domain.Task, bool)
	ClearLastDeleted()
}

// TaskHandler adapts HTTP requests to tracker calls.
type TaskHandler struct {
	tracker Tracker
}

// NewTaskHandler creates a new HTTP API handler.
func NewTaskHandler(tracker Tracker) *TaskHandler {
	return &TaskHandler{tracker: tracker}
}

// NewRouter mounts every API route on a fresh chi router.
// Both production code and tests use it so routing is identical.
func NewRouter(tracker Tracker) http.Handler {
	h := NewTaskHandler(tracker)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.SubmitTask)
		r.Patch("/tasks/{id}", h.PatchTask)
		r.Delete("/tasks/{id}", h.DeleteTask)

		r.Get("/undo", h.GetUndo)
		r.Post("/undo", h.Undo)
		r.Delete("/undo", h.ClearUndo)

		r.Get("/metrics", h.GetMetrics)
	})
	return r
}
