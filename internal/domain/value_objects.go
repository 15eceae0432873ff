package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the maximum number of characters in a title.
const MaxTitleLength = 255

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if utf8.RuneCountInString(s) > MaxTitleLength {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// NewTaskStatus validates and creates a TaskStatus.
// Matching ignores case and treats '_' and '-' as spaces, so "in_progress",
// "IN-PROGRESS" and "In Progress" are all accepted.
func NewTaskStatus(s string) (TaskStatus, error) {
	key := enumKey(s)
	for _, status := range TaskStatuses {
		if enumKey(string(status)) == key {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidTaskStatus, s)
}

// NewTaskPriority validates and creates a TaskPriority.
// Returns error for invalid values.
func NewTaskPriority(s string) (TaskPriority, error) {
	key := enumKey(s)
	for _, priority := range TaskPriorities {
		if enumKey(string(priority)) == key {
			return priority, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidTaskPriority, s)
}

func enumKey(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
