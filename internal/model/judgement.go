package model

import "time"

// Judgement is the immutable record of one judge invocation: the
// assessment of a completed task, any tasks it spawned, and whether
// the judge declared the overall goal complete.
type Judgement struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"taskId"`
	Assessment   string    `json:"assessment"`
	NewTaskIDs   []string  `json:"newTaskIds"`
	GoalComplete bool      `json:"goalComplete"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewJudgement creates a judgement record with a fresh identifier.
// NewTaskIDs is filled in by the caller once spawned tasks exist.
func NewJudgement(taskID string) *Judgement {
	return &Judgement{
		ID:         NewID(),
		TaskID:     taskID,
		NewTaskIDs: []string{},
		CreatedAt:  time.Now(),
	}
}

func (j *Judgement) clone() *Judgement {
	cp := *j
	cp.NewTaskIDs = append([]string(nil), j.NewTaskIDs...)
	return &cp
}
