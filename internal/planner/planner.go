// Package planner defines the interface to the external planning
// service: one call to produce the initial task plan for a run, and
// one call per completed task to judge progress. The core never
// interprets how a planner is implemented; the bundled implementation
// shells out to the Claude CLI.
package planner

import (
	"context"

	"github.com/driftworks/crew/internal/model"
)

// TaskSpec is a task as the planner describes it. Dependencies are by
// title; the scheduler resolves them to task identifiers.
type TaskSpec struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	DependsOn   []string `json:"dependsOn"`
}

// Plan is the result of the initial planning call.
type Plan struct {
	Analysis string     `json:"analysis"`
	Tasks    []TaskSpec `json:"tasks"`
}

// Verdict is the result of judging one completed task.
type Verdict struct {
	Assessment   string     `json:"assessment"`
	GoalComplete bool       `json:"goalComplete"`
	NewTasks     []TaskSpec `json:"newTasks"`
}

// Planner plans runs and judges completed tasks. Both calls receive
// run (and task) snapshots; implementations must not retain them.
type Planner interface {
	// Plan produces the initial analysis and task set for a run.
	// Failure is fatal to the run.
	Plan(ctx context.Context, run *model.Run) (*Plan, error)

	// Judge assesses a completed (or failed) task and may spawn
	// follow-up tasks or declare the goal complete. Failure is never
	// fatal; the scheduler records it and continues.
	Judge(ctx context.Context, run *model.Run, task *model.Task) (*Verdict, error)
}
