// Package normalize repairs loosely typed task records read from a slot or a
// seed resource into well-formed domain tasks.
//
// Normalization never fails on a record. Missing timestamps are synthesized,
// invalid numbers are replaced with safe defaults and unknown enum values fall
// back to Todo/Medium, so one malformed record cannot block the rest of a list.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/tally/internal/domain"
)

// day is the spacing used for synthesized timestamps.
const day = 24 * time.Hour

// Timestamps must stay within the range time.Time can marshal to JSON.
const (
	minYear = 1
	maxYear = 9999

	// maxUnixMilli is 9999-12-31T23:59:59.999Z.
	maxUnixMilli = 253402300799999
)

// ErrNotArray is returned by NormalizeJSON when the payload is not a JSON array.
var ErrNotArray = errors.New("payload is not a JSON array")

// timeLayouts are tried in order when parsing timestamp strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// newID is swapped in tests.
var newID = func() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NormalizeJSON decodes a JSON array of records and normalizes it.
// Entries that are not JSON objects are skipped; their index still counts when
// synthesizing creation times so the remaining records keep their spacing.
func NormalizeJSON(data []byte, now time.Time) ([]domain.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var entries []any
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotArray, err)
	}

	raw := make([]map[string]any, len(entries))
	for i, entry := range entries {
		if record, ok := entry.(map[string]any); ok {
			raw[i] = record
		}
	}
	return Normalize(raw, now), nil
}

// Normalize converts raw records into tasks. A nil record is skipped.
//
// For the record at index i:
//   - createdAt: the record's value when parseable, else now-(i+1)*24h so
//     earlier positions look older;
//   - completedAt: the record's value when parseable, else createdAt+24h for
//     Done tasks, else unset;
//   - revenue: numeric coercion, anything non-finite, negative or missing is 0;
//   - timeTaken: numeric coercion, anything not strictly positive becomes 1;
//   - id: kept when present and unique within the list, else a fresh UUIDv7.
func Normalize(raw []map[string]any, now time.Time) []domain.Task {
	tasks := make([]domain.Task, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, record := range raw {
		if record == nil {
			continue
		}

		task := domain.Task{
			ID:        stringField(record["id"]),
			Title:     stringField(record["title"]),
			Notes:     stringField(record["notes"]),
			Revenue:   revenueField(record["revenue"]),
			TimeTaken: domain.ClampTimeTaken(numberField(record["timeTaken"])),
			Status:    statusField(record["status"]),
			Priority:  priorityField(record["priority"]),
		}

		if created, ok := timeField(record["createdAt"]); ok {
			task.CreatedAt = created
		} else {
			task.CreatedAt = now.Add(-time.Duration(i+1) * day)
		}

		if completed, ok := timeField(record["completedAt"]); ok {
			task.CompletedAt = &completed
		} else if task.IsDone() {
			completed := task.CreatedAt.Add(day)
			task.CompletedAt = &completed
		}

		if _, dup := seen[task.ID]; task.ID == "" || dup {
			task.ID = newID()
		}
		seen[task.ID] = struct{}{}

		tasks = append(tasks, task)
	}

	return tasks
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// numberField coerces v to a float64. NaN is returned when v has no numeric reading.
func numberField(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

func revenueField(v any) float64 {
	f := numberField(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func statusField(v any) domain.TaskStatus {
	status, err := domain.NewTaskStatus(stringField(v))
	if err != nil {
		return domain.TaskStatusTodo
	}
	return status
}

func priorityField(v any) domain.TaskPriority {
	priority, err := domain.NewTaskPriority(stringField(v))
	if err != nil {
		return domain.TaskPriorityMedium
	}
	return priority
}

// timeField parses timestamp strings in the accepted layouts and numbers as
// Unix milliseconds. Results are converted to UTC. Times outside years
// 1..9999 are unparseable because they cannot be encoded back to JSON.
func timeField(v any) (time.Time, bool) {
	parsed, ok := parseTime(v)
	if !ok || parsed.Year() < minYear || parsed.Year() > maxYear {
		return time.Time{}, false
	}
	return parsed, true
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	case json.Number, float64, int64, int:
		ms := numberField(t)
		if math.IsNaN(ms) || ms <= 0 || ms > maxUnixMilli {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	default:
		return time.Time{}, false
	}
}
