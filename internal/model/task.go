package model

import "time"

// TaskStatus represents a task's lifecycle state
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// IsTerminal returns true if the status is a final state
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// BlockedByDepsError is the error text recorded on tasks cancelled
// because a dependency failed or was cancelled.
const BlockedByDepsError = "Blocked by failed dependencies"

// Task is a unit of work inside a run, executed by one worker.
// Dependencies reference task IDs within the same run; a task may not
// start until every dependency has completed.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    int        `json:"priority"`
	DependsOn   []string   `json:"dependsOn"`
	WorkerID    string     `json:"workerId,omitempty"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	SpawnedBy   string     `json:"spawnedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// DefaultTaskPriority is used when the planner omits a priority.
// Smaller numbers run first.
const DefaultTaskPriority = 5

// NewTask creates a pending task with a fresh identifier.
func NewTask(title, description string, priority int, dependsOn []string) *Task {
	if priority == 0 {
		priority = DefaultTaskPriority
	}
	if dependsOn == nil {
		dependsOn = []string{}
	}
	return &Task{
		ID:          NewID(),
		Title:       title,
		Description: description,
		Status:      TaskPending,
		Priority:    priority,
		DependsOn:   dependsOn,
		CreatedAt:   time.Now(),
	}
}

// ResetToPending rolls an interrupted task back so it may be retried
// on resume. Clears the start time and worker assignment.
func (t *Task) ResetToPending() {
	t.Status = TaskPending
	t.StartedAt = nil
	t.WorkerID = ""
}

func (t *Task) clone() *Task {
	cp := *t
	cp.DependsOn = append([]string(nil), t.DependsOn...)
	if t.StartedAt != nil {
		v := *t.StartedAt
		cp.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		cp.CompletedAt = &v
	}
	return &cp
}
