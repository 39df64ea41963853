// Package testutil provides scripted planner and launcher stubs
// shared by scheduler, manager and transport tests.
package testutil

import (
	"context"
	"sync"

	"github.com/driftworks/crew/internal/model"
	"github.com/driftworks/crew/internal/planner"
)

// ScriptedPlanner answers Plan with a fixed plan and Judge with
// per-title verdicts. Unscripted titles get a neutral verdict.
type ScriptedPlanner struct {
	mu        sync.Mutex
	plan      planner.Plan
	planErr   error
	planGate  chan struct{}
	planCalls int
	judgeErr  error
	verdicts  map[string]planner.Verdict
	judged    []string
}

// NewPlanner scripts the initial plan with the given task specs.
func NewPlanner(analysis string, tasks ...planner.TaskSpec) *ScriptedPlanner {
	return &ScriptedPlanner{
		plan:     planner.Plan{Analysis: analysis, Tasks: tasks},
		verdicts: make(map[string]planner.Verdict),
	}
}

// FailPlanning makes Plan return the given error.
func (f *ScriptedPlanner) FailPlanning(err error) *ScriptedPlanner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planErr = err
	return f
}

// FailJudging makes every unscripted Judge call return the error.
func (f *ScriptedPlanner) FailJudging(err error) *ScriptedPlanner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.judgeErr = err
	return f
}

// GatePlanning makes Plan block until the returned channel is closed
// or the context is cancelled.
func (f *ScriptedPlanner) GatePlanning() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planGate = make(chan struct{})
	return f.planGate
}

// Verdict scripts the judge response for one task title.
func (f *ScriptedPlanner) Verdict(title string, v planner.Verdict) *ScriptedPlanner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verdicts[title] = v
	return f
}

// Plan implements planner.Planner.
func (f *ScriptedPlanner) Plan(ctx context.Context, _ *model.Run) (*planner.Plan, error) {
	f.mu.Lock()
	f.planCalls++
	gate := f.planGate
	planErr := f.planErr
	p := f.plan
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-gate:
		}
	}
	if planErr != nil {
		return nil, planErr
	}
	return &p, nil
}

// Judge implements planner.Planner.
func (f *ScriptedPlanner) Judge(_ context.Context, _ *model.Run, task *model.Task) (*planner.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.judged = append(f.judged, task.Title)
	if v, ok := f.verdicts[task.Title]; ok {
		return &v, nil
	}
	if f.judgeErr != nil {
		return nil, f.judgeErr
	}
	return &planner.Verdict{Assessment: "keep going"}, nil
}

// JudgedTitles returns the titles judged so far, in order.
func (f *ScriptedPlanner) JudgedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.judged...)
}

// PlanCalls returns how many times Plan was invoked.
func (f *ScriptedPlanner) PlanCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.planCalls
}
