// Package form validates user-submitted task candidates before they reach the
// tracker. Validation never fails with an error value: problems are reported
// as a field to message map so they can be shown next to the offending input.
package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rezkam/tally/internal/domain"
)

// MinTitleLength is the shortest accepted title, counted after trimming.
const MinTitleLength = 3

// Field names used as keys in Errors.
const (
	FieldTitle     = "title"
	FieldRevenue   = "revenue"
	FieldTimeTaken = "timeTaken"
	FieldPriority  = "priority"
	FieldStatus    = "status"
)

// Errors maps a field name to a human-readable message.
type Errors map[string]string

// Valid reports whether no field failed validation.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	return slices.Sorted(maps.Keys(e))
}

// Error implements error so a failed validation can travel through error returns.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range e.Fields() {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Candidate is the raw form submission. Numeric fields are kept as text the
// way a form delivers them; JSON numbers are accepted too.
type Candidate struct {
	ID        string
	Title     string
	Revenue   string
	TimeTaken string
	Priority  string
	Status    string
	Notes     string
}

type candidateJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Revenue   Text   `json:"revenue"`
	TimeTaken Text   `json:"timeTaken"`
	Priority  string `json:"priority"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// UnmarshalJSON accepts revenue and timeTaken as either JSON numbers or strings.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw candidateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Candidate{
		ID:        raw.ID,
		Title:     raw.Title,
		Revenue:   string(raw.Revenue),
		TimeTaken: string(raw.TimeTaken),
		Priority:  raw.Priority,
		Status:    raw.Status,
		Notes:     raw.Notes,
	}
	return nil
}

// Text is a form value that decodes from either a JSON string or a JSON number.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (v *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected a number or string: %w", err)
		}
		*v = Text(n.String())
	}
	return nil
}

// Validate checks a candidate against the form rules. existingTitles must
// already exclude the title of the task being edited (see TitlesExcept).
func Validate(c Candidate, existingTitles []string) Errors {
	errs := Errors{}
	validateTitle(errs, c.Title, existingTitles)
	validateRevenue(errs, c.Revenue)
	validateTimeTaken(errs, c.TimeTaken)
	validatePriority(errs, c.Priority)
	validateStatus(errs, c.Status)
	return errs
}

// Task converts a candidate into a domain task. It returns Errors when a
// field cannot be parsed; title uniqueness is not checked here.
func (c Candidate) Task() (domain.Task, error) {
	if errs := Validate(c, nil); !errs.Valid() {
		return domain.Task{}, errs
	}

	title, _ := domain.NewTitle(c.Title)
	revenue, _ := parseNumber(c.Revenue)
	timeTaken, _ := parseNumber(c.TimeTaken)
	priority, _ := domain.NewTaskPriority(c.Priority)
	status, _ := domain.NewTaskStatus(c.Status)

	return domain.Task{
		ID:        strings.TrimSpace(c.ID),
		Title:     title.String(),
		Revenue:   revenue,
		TimeTaken: timeTaken,
		Priority:  priority,
		Status:    status,
		Notes:     strings.TrimSpace(c.Notes),
	}, nil
}

// Patch is a partial submission; nil fields are left unchanged.
type Patch struct {
	Title     *string `json:"title"`
	Revenue   *Text   `json:"revenue"`
	TimeTaken *Text   `json:"timeTaken"`
	Priority  *string `json:"priority"`
	Status    *string `json:"status"`
	Notes     *string `json:"notes"`
}

// ValidatePatch applies the form rules to the fields present in p.
func ValidatePatch(p Patch, existingTitles []string) Errors {
	errs := Errors{}
	if p.Title != nil {
		validateTitle(errs, *p.Title, existingTitles)
	}
	if p.Revenue != nil {
		validateRevenue(errs, string(*p.Revenue))
	}
	if p.TimeTaken != nil {
		validateTimeTaken(errs, string(*p.TimeTaken))
	}
	if p.Priority != nil {
		validatePriority(errs, *p.Priority)
	}
	if p.Status != nil {
		validateStatus(errs, *p.Status)
	}
	return errs
}

// TaskPatch converts p into a domain patch. It returns Errors when a present
// field cannot be parsed.
func (p Patch) TaskPatch() (domain.TaskPatch, error) {
	if errs := ValidatePatch(p, nil); !errs.Valid() {
		return domain.TaskPatch{}, errs
	}

	var patch domain.TaskPatch
	if p.Title != nil {
		title, _ := domain.NewTitle(*p.Title)
		s := title.String()
		patch.Title = &s
	}
	if p.Revenue != nil {
		v, _ := parseNumber(string(*p.Revenue))
		patch.Revenue = &v
	}
	if p.TimeTaken != nil {
		v, _ := parseNumber(string(*p.TimeTaken))
		patch.TimeTaken = &v
	}
	if p.Priority != nil {
		v, _ := domain.NewTaskPriority(*p.Priority)
		patch.Priority = &v
	}
	if p.Status != nil {
		v, _ := domain.NewTaskStatus(*p.Status)
		patch.Status = &v
	}
	if p.Notes != nil {
		s := strings.TrimSpace(*p.Notes)
		patch.Notes = &s
	}
	return patch, nil
}

// TitlesExcept lists the titles of tasks other than the one with id.
func TitlesExcept(tasks []domain.Task, id string) []string {
	titles := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if id != "" && t.ID == id {
			continue
		}
		titles = append(titles, t.Title)
	}
	return titles
}

func validateTitle(errs Errors, raw string, existing []string) {
	title, err := domain.NewTitle(raw)
	switch {
	case errors.Is(err, domain.ErrTitleRequired):
		errs[FieldTitle] = "Title is required"
		return
	case errors.Is(err, domain.ErrTitleTooLong):
		errs[FieldTitle] = fmt.Sprintf("Title must be %d characters or less", domain.MaxTitleLength)
		return
	}

	if utf8.RuneCountInString(title.String()) < MinTitleLength {
		errs[FieldTitle] = fmt.Sprintf("Title must be at least %d characters", MinTitleLength)
		return
	}
	for _, other := range existing {
		if strings.TrimSpace(other) == title.String() {
			errs[FieldTitle] = "A task with this title already exists"
			return
		}
	}
}

func validateRevenue(errs Errors, raw string) {
	if strings.TrimSpace(raw) == "" {
		errs[FieldRevenue] = "Revenue is required"
		return
	}
	v, ok := parseNumber(raw)
	switch {
	case !ok:
		errs[FieldRevenue] = "Revenue must be a number"
	case v < 0:
		errs[FieldRevenue] = "Revenue cannot be negative"
	}
}

func validateTimeTaken(errs Errors, raw string) {
	if strings.TrimSpace(raw) == "" {
		errs[FieldTimeTaken] = "Time taken is required"
		return
	}
	v, ok := parseNumber(raw)
	switch {
	case !ok:
		errs[FieldTimeTaken] = "Time taken must be a number"
	case v <= 0:
		errs[FieldTimeTaken] = "Time taken must be greater than 0"
	}
}

func validatePriority(errs Errors, raw string) {
	if _, err := domain.NewTaskPriority(raw); err != nil {
		errs[FieldPriority] = "Priority must be one of High, Medium, Low"
	}
}

func validateStatus(errs Errors, raw string) {
	if _, err := domain.NewTaskStatus(raw); err != nil {
		errs[FieldStatus] = "Status must be one of Todo, In Progress, Done"
	}
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
