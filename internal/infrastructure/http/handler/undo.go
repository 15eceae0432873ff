package handler

import (
	"net/http"

	"github.com/rezkam/tally/internal/analytics"
	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/infrastructure/http/response"
)

// GetUndo returns the task that Undo would restore.
// GET /v1/undo
func (h *TaskHandler) GetUndo(w http.ResponseWriter, r *http.Request) {
	task, ok := h.tracker.LastDeleted()
	if !ok {
		response.FromDomainError(w, r, domain.ErrNothingToUndo)
		return
	}
	response.OK(w, task)
}

// Undo restores the most recently deleted task.
// POST /v1/undo
func (h *TaskHandler) Undo(w http.ResponseWriter, r *http.Request) {
	restored, ok := h.tracker.UndoDelete(r.Context())
	if !ok {
		response.FromDomainError(w, r, domain.ErrNothingToUndo)
		return
	}
	response.OK(w, restored)
}

// ClearUndo dismisses the undo buffer.
// DELETE /v1/undo
func (h *TaskHandler) ClearUndo(w http.ResponseWriter, r *http.Request) {
	h.tracker.ClearLastDeleted()
	response.NoContent(w)
}

// MetricsResponse is the body of GET /v1/metrics.
type MetricsResponse struct {
	Metrics analytics.Metrics `json:"metrics"`
	Summary analytics.Summary `json:"summary"`
}

// GetMetrics returns aggregate metrics and per-status/priority counts.
// GET /v1/metrics
func (h *TaskHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	response.OK(w, MetricsResponse{
		Metrics: h.tracker.Metrics(),
		Summary: analytics.Summarize(h.tracker.Tasks()),
	})
}
