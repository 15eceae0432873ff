package domain

// TaskStatus represents the workflow state of a task.
// Value object - immutable string enum.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "Todo"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

// TaskStatuses lists every status in workflow order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

// TaskPriority represents the priority level of a task.
// Value object - immutable string enum.
type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "High"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityLow    TaskPriority = "Low"
)

// TaskPriorities lists every priority from most to least urgent.
var TaskPriorities = []TaskPriority{TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow}

// Weight returns the sort weight of the priority: High=3, Medium=2, Low=1.
// Unknown priorities weigh 0 so they sort last.
func (p TaskPriority) Weight() int {
	switch p {
	case TaskPriorityHigh:
		return 3
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 1
	default:
		return 0
	}
}

// PerformanceGrade is the bucket derived from the average ROI of all tasks.
type PerformanceGrade string

const (
	GradeExcellent        PerformanceGrade = "Excellent"
	GradeGood             PerformanceGrade = "Good"
	GradeNeedsImprovement PerformanceGrade = "Needs Improvement"
)
