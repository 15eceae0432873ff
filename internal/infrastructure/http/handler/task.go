package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/tally/internal/analytics"
	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/form"
	"github.com/rezkam/tally/internal/infrastructure/http/response"
	"github.com/rezkam/tally/internal/ptr"
)

// TaskListResponse is the body of GET /v1/tasks.
type TaskListResponse struct {
	Tasks []analytics.DerivedTask `json:"tasks"`
	Count int                     `json:"count"`
}

// ListTasks returns the derived tasks matching the query, sorted by ROI.
// GET /v1/tasks?status=&priority=&q=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	params, errs := parseFilter(r.URL.Query())
	if !errs.Valid() {
		response.ValidationErrors(w, errs)
		return
	}

	derived := analytics.Derive(analytics.Filter(h.tracker.Tasks(), params))
	response.OK(w, TaskListResponse{Tasks: derived, Count: len(derived)})
}

// SubmitTask creates a task, or replaces the fields of an existing one when
// the body carries its id.
// POST /v1/tasks
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var candidate form.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	candidate.ID = strings.TrimSpace(candidate.ID)
	editing := false
	if candidate.ID != "" {
		_, editing = h.tracker.Task(candidate.ID)
	}

	titles := form.TitlesExcept(h.tracker.Tasks(), candidate.ID)
	if errs := form.Validate(candidate, titles); !errs.Valid() {
		response.ValidationErrors(w, errs)
		return
	}

	task, err := candidate.Task()
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	if !editing {
		created := h.tracker.AddTask(r.Context(), task)
		slog.InfoContext(r.Context(), "task created via HTTP", "task_id", created.ID)
		response.Created(w, created)
		return
	}

	updated, ok := h.tracker.UpdateTask(r.Context(), task.ID, fullPatch(task))
	if !ok {
		// Deleted between the lookup and the update.
		response.FromDomainError(w, r, domain.ErrTaskNotFound)
		return
	}
	response.OK(w, updated)
}

// PatchTask merge-patches an existing task.
// PATCH /v1/tasks/{id}
func (h *TaskHandler) PatchTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.tracker.Task(id); !ok {
		response.FromDomainError(w, r, domain.ErrTaskNotFound)
		return
	}

	var p form.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	if errs := form.ValidatePatch(p, form.TitlesExcept(h.tracker.Tasks(), id)); !errs.Valid() {
		response.ValidationErrors(w, errs)
		return
	}

	patch, err := p.TaskPatch()
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	if patch.IsEmpty() {
		// Nothing to merge; skip the write.
		current, ok := h.tracker.Task(id)
		if !ok {
			response.FromDomainError(w, r, domain.ErrTaskNotFound)
			return
		}
		response.OK(w, current)
		return
	}

	updated, ok := h.tracker.UpdateTask(r.Context(), id, patch)
	if !ok {
		response.FromDomainError(w, r, domain.ErrTaskNotFound)
		return
	}
	response.OK(w, updated)
}

// DeleteTask removes a task and makes it restorable through /v1/undo.
// DELETE /v1/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	deleted, ok := h.tracker.DeleteTask(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		response.FromDomainError(w, r, domain.ErrTaskNotFound)
		return
	}
	response.OK(w, deleted)
}

func fullPatch(t domain.Task) domain.TaskPatch {
	return domain.TaskPatch{
		Title:     ptr.To(t.Title),
		Revenue:   ptr.To(t.Revenue),
		TimeTaken: ptr.To(t.TimeTaken),
		Priority:  ptr.To(t.Priority),
		Status:    ptr.To(t.Status),
		Notes:     ptr.To(t.Notes),
	}
}
