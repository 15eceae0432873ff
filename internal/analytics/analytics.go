// Package analytics derives per-task and aggregate performance figures from a
// task list. Every function is pure and recomputes from scratch.
package analytics

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/rezkam/tally/internal/domain"
)

// Grade thresholds on average ROI (revenue per hour).
const (
	ExcellentROIThreshold = 500.0 // strictly above
	GoodROIThreshold      = 200.0 // at or above
)

// DerivedTask is a task annotated with the values used for display and sorting.
// It is never persisted.
type DerivedTask struct {
	domain.Task
	ROI            float64 `json:"roi"`
	PriorityWeight int     `json:"priorityWeight"`
}

// Metrics is an aggregate snapshot over a whole task list.
type Metrics struct {
	TotalRevenue      float64                 `json:"totalRevenue"`
	TotalTimeTaken    float64                 `json:"totalTimeTaken"`
	TimeEfficiencyPct float64                 `json:"timeEfficiencyPct"`
	RevenuePerHour    float64                 `json:"revenuePerHour"`
	AverageROI        float64                 `json:"averageROI"`
	PerformanceGrade  domain.PerformanceGrade `json:"performanceGrade"`
	TaskCount         int                     `json:"taskCount"`
	DoneCount         int                     `json:"doneCount"`
}

// DefaultMetrics is the snapshot reported for an empty task list.
func DefaultMetrics() Metrics {
	return Metrics{PerformanceGrade: domain.GradeNeedsImprovement}
}

// ROI returns revenue per hour for a single task. A task without positive
// time has ROI 0; overflowing results saturate at the largest float64.
func ROI(t domain.Task) float64 {
	if !(t.TimeTaken > 0) {
		return 0
	}
	return saturate(t.Revenue / t.TimeTaken)
}

// Derive annotates every task and returns them sorted with SortDerived.
// The input slice is not modified.
func Derive(tasks []domain.Task) []DerivedTask {
	derived := make([]DerivedTask, len(tasks))
	for i, t := range tasks {
		derived[i] = DerivedTask{
			Task:           t.Clone(),
			ROI:            ROI(t),
			PriorityWeight: t.Priority.Weight(),
		}
	}
	SortDerived(derived)
	return derived
}

// SortDerived orders tasks by ROI descending, then priority weight descending.
// The sort is stable: tasks with equal keys keep their relative input order.
func SortDerived(tasks []DerivedTask) {
	slices.SortStableFunc(tasks, func(a, b DerivedTask) int {
		if c := cmp.Compare(b.ROI, a.ROI); c != 0 {
			return c
		}
		return cmp.Compare(b.PriorityWeight, a.PriorityWeight)
	})
}

// Compute returns the aggregate metrics for tasks.
func Compute(tasks []domain.Task) Metrics {
	if len(tasks) == 0 {
		return DefaultMetrics()
	}

	// Totals saturate instead of overflowing and the mean is kept as a running
	// average, so every field stays finite and JSON-encodable.
	var m Metrics
	var doneTime, avgROI float64
	for i, t := range tasks {
		m.TotalRevenue = saturate(m.TotalRevenue + t.Revenue)
		m.TotalTimeTaken = saturate(m.TotalTimeTaken + t.TimeTaken)
		avgROI = saturate(avgROI + (ROI(t)-avgROI)/float64(i+1))
		if t.IsDone() {
			m.DoneCount++
			doneTime = saturate(doneTime + t.TimeTaken)
		}
	}
	m.TaskCount = len(tasks)

	if m.TotalTimeTaken > 0 {
		m.RevenuePerHour = saturate(m.TotalRevenue / m.TotalTimeTaken)
		m.TimeEfficiencyPct = TimeEfficiency(doneTime, m.TotalTimeTaken)
	}
	m.AverageROI = avgROI
	m.PerformanceGrade = Grade(m.AverageROI)

	return m
}

// TimeEfficiency is the share of tracked time spent on completed work,
// as a percentage bounded to [0, 100].
func TimeEfficiency(doneTime, totalTime float64) float64 {
	if totalTime <= 0 {
		return 0
	}
	return math.Min(100, math.Max(0, finite(doneTime/totalTime*100)))
}

// Grade buckets an average ROI into a performance grade.
func Grade(averageROI float64) domain.PerformanceGrade {
	switch {
	case averageROI > ExcellentROIThreshold:
		return domain.GradeExcellent
	case averageROI >= GoodROIThreshold:
		return domain.GradeGood
	default:
		return domain.GradeNeedsImprovement
	}
}

// FilterParams selects a subset of tasks. Zero values match everything.
type FilterParams struct {
	Status   *domain.TaskStatus
	Priority *domain.TaskPriority
	Query    string // case-insensitive substring of title or notes
}

// Filter returns the tasks matching params, preserving order.
func Filter(tasks []domain.Task, params FilterParams) []domain.Task {
	query := strings.ToLower(strings.TrimSpace(params.Query))

	matched := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Priority != nil && t.Priority != *params.Priority {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Notes), query) {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}

// Summary counts tasks per status and per priority.
type Summary struct {
	ByStatus   map[domain.TaskStatus]int   `json:"byStatus"`
	ByPriority map[domain.TaskPriority]int `json:"byPriority"`
}

// Summarize counts tasks per status and priority. Every known status and
// priority is present in the result, with zero counts where appropriate.
func Summarize(tasks []domain.Task) Summary {
	s := Summary{
		ByStatus:   make(map[domain.TaskStatus]int, len(domain.TaskStatuses)),
		ByPriority: make(map[domain.TaskPriority]int, len(domain.TaskPriorities)),
	}
	for _, status := range domain.TaskStatuses {
		s.ByStatus[status] = 0
	}
	for _, priority := range domain.TaskPriorities {
		s.ByPriority[priority] = 0
	}
	for _, t := range tasks {
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
	}
	return s
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// saturate maps NaN to 0 and clamps infinities to the largest finite float64.
func saturate(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
