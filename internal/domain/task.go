package domain

import (
	"math"
	"time"
)

// DefaultTimeTaken replaces any non-positive time spent on a task.
const DefaultTimeTaken = 1.0

// Task is a unit of tracked work together with the business value it produced.
//
// Tasks are treated as immutable values: the tracker replaces a record on every
// change instead of mutating it in place. Use Clone before handing a task out
// of a guarded structure so the CompletedAt pointer is not shared.
type Task struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Revenue   float64      `json:"revenue"`
	TimeTaken float64      `json:"timeTaken"` // hours, always > 0 once stored
	Priority  TaskPriority `json:"priority"`
	Status    TaskStatus   `json:"status"`
	Notes     string       `json:"notes,omitempty"`

	// CreatedAt is stamped once when the task enters the tracker.
	CreatedAt time.Time `json:"createdAt"`

	// CompletedAt is stamped the first time the task reaches Done and is
	// never overwritten afterwards, even if the status later moves away from Done.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// IsDone reports whether the task is in the Done status.
func (t Task) IsDone() bool {
	return t.Status == TaskStatusDone
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		t.CompletedAt = &completed
	}
	return t
}

// ClampTimeTaken returns v when it is a finite, strictly positive number and
// DefaultTimeTaken otherwise.
func ClampTimeTaken(v float64) float64 {
	if v > 0 && !math.IsInf(v, 1) {
		return v
	}
	return DefaultTimeTaken
}

// TaskPatch is a merge patch for a task. Nil fields keep the base value.
//
// ID, CreatedAt and CompletedAt are deliberately absent: identity and creation
// time never change, and CompletedAt is managed by MergeTask.
type TaskPatch struct {
	Title     *string       `json:"title,omitempty"`
	Revenue   *float64      `json:"revenue,omitempty"`
	TimeTaken *float64      `json:"timeTaken,omitempty"`
	Priority  *TaskPriority `json:"priority,omitempty"`
	Status    *TaskStatus   `json:"status,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Revenue == nil && p.TimeTaken == nil &&
		p.Priority == nil && p.Status == nil && p.Notes == nil
}

// MergeTask applies patch to base and returns the merged task.
//
// Precedence rules:
//   - every non-nil patch field overrides the base field;
//   - ID and CreatedAt always come from base;
//   - CompletedAt is set to now when the merged status is Done and base has no
//     CompletedAt yet; an existing CompletedAt is kept whatever the status;
//   - TimeTaken is re-clamped after merging, whether patched or retained.
func MergeTask(base Task, patch TaskPatch, now time.Time) Task {
	merged := base.Clone()

	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Revenue != nil {
		merged.Revenue = *patch.Revenue
	}
	if patch.TimeTaken != nil {
		merged.TimeTaken = *patch.TimeTaken
	}
	if patch.Priority != nil {
		merged.Priority = *patch.Priority
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.Notes != nil {
		merged.Notes = *patch.Notes
	}

	if merged.IsDone() && merged.CompletedAt == nil {
		completed := now
		merged.CompletedAt = &completed
	}
	merged.TimeTaken = ClampTimeTaken(merged.TimeTaken)

	return merged
}
