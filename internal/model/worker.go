package model

import "time"

// WorkerStatus represents a worker's lifecycle state
type WorkerStatus string

const (
	WorkerRunning   WorkerStatus = "running"
	WorkerCompleted WorkerStatus = "completed"
	WorkerFailed    WorkerStatus = "failed"
)

// ActivityType classifies a single structured activity record emitted
// by a worker while it runs.
type ActivityType string

const (
	ActivityToolCall   ActivityType = "tool_call"
	ActivityFileEdit   ActivityType = "file_edit"
	ActivityFileCreate ActivityType = "file_create"
	ActivityBash       ActivityType = "bash"
	ActivityText       ActivityType = "text"
	ActivityError      ActivityType = "error"
	ActivityThinking   ActivityType = "thinking"
)

// Activity is one structured record of agent behavior: a tool call, a
// file touch, a shell command, or a text/thinking fragment.
type Activity struct {
	Type    ActivityType `json:"type"`
	Summary string       `json:"summary"`
	Time    time.Time    `json:"time"`
}

// Worker is the record of one agent execution against a task. The
// worker adapter appends logs and activity as the agent runs and sets
// the terminal status when it exits.
type Worker struct {
	ID          string       `json:"id"`
	Status      WorkerStatus `json:"status"`
	TaskID      string       `json:"taskId"`
	Logs        []string     `json:"logs"`
	Activity    []Activity   `json:"activity"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// NewWorker creates a running worker record for the given task.
func NewWorker(taskID string) *Worker {
	return &Worker{
		ID:        NewID(),
		Status:    WorkerRunning,
		TaskID:    taskID,
		Logs:      []string{},
		Activity:  []Activity{},
		StartedAt: time.Now(),
	}
}

func (w *Worker) clone() *Worker {
	cp := *w
	cp.Logs = append([]string(nil), w.Logs...)
	cp.Activity = append([]Activity(nil), w.Activity...)
	if w.CompletedAt != nil {
		v := *w.CompletedAt
		cp.CompletedAt = &v
	}
	return &cp
}
