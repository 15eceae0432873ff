package handler

import (
	"net/url"
	"strings"

	"github.com/rezkam/tally/internal/analytics"
	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/form"
)

// parseFilter reads status, priority and q from the query string.
// Empty values match everything.
func parseFilter(q url.Values) (analytics.FilterParams, form.Errors) {
	params := analytics.FilterParams{Query: q.Get("q")}
	errs := form.Errors{}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := domain.NewTaskStatus(raw)
		if err != nil {
			errs[form.FieldStatus] = "Status must be one of Todo, In Progress, Done"
		} else {
			params.Status = &status
		}
	}

	if raw := strings.TrimSpace(q.Get("priority")); raw != "" {
		priority, err := domain.NewTaskPriority(raw)
		if err != nil {
			errs[form.FieldPriority] = "Priority must be one of High, Medium, Low"
		} else {
			params.Priority = &priority
		}
	}

	return params, errs
}
