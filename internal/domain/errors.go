package domain

import "errors"

// Domain errors returned by the tracker, slot implementations and validators.

var (
	// ErrTaskNotFound indicates no task carries the requested ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNothingToUndo indicates the undo buffer is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrSlotEmpty is returned by slot implementations when nothing has been persisted yet.
	ErrSlotEmpty = errors.New("slot is empty")

	// ErrTitleRequired indicates an empty or whitespace-only title.
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong indicates a title longer than MaxTitleLength characters.
	ErrTitleTooLong = errors.New("title too long")

	// ErrInvalidTaskStatus indicates a status outside Todo, In Progress, Done.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTaskPriority indicates a priority outside High, Medium, Low.
	ErrInvalidTaskPriority = errors.New("invalid task priority")
)
