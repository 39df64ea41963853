package model

import (
	"sync"
	"time"
)

// RunStatus represents the run's lifecycle state
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunPlanning  RunStatus = "planning"
	RunExecuting RunStatus = "executing"
	RunJudging   RunStatus = "judging"
	RunPaused    RunStatus = "paused"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunStopped   RunStatus = "stopped"
)

// IsTerminal returns true if the status is a final state
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunStopped
}

// IsActive returns true while a scheduler may be driving the run
func (s RunStatus) IsActive() bool {
	return s == RunPlanning || s == RunExecuting || s == RunJudging
}

// MaxWorkers bounds for a single run
const (
	MinWorkers        = 1
	MaxWorkersLimit   = 10
	DefaultMaxWorkers = 3
)

// ClampWorkers applies the default and the [1, 10] bound to a
// requested worker count. Zero means "use the default".
func ClampWorkers(n int) int {
	if n == 0 {
		return DefaultMaxWorkers
	}
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkersLimit {
		return MaxWorkersLimit
	}
	return n
}

// Run is one end-to-end attempt to satisfy a goal over a target
// directory. It owns its tasks, judgements and workers exclusively.
//
// A Run guards its own mutable state: every mutation and every
// consistent multi-field read happens between Lock and Unlock. The
// scheduler, the run manager and the worker adapter all share this
// one guard. Snapshot returns a deep copy for lock-free readers.
type Run struct {
	mu sync.Mutex

	ID          string       `json:"id"`
	Goal        string       `json:"goal"`
	TargetDir   string       `json:"targetDir"`
	Status      RunStatus    `json:"status"`
	Analysis    string       `json:"analysis"`
	Tasks       []*Task      `json:"tasks"`
	Judgements  []*Judgement `json:"judgements"`
	Workers     []*Worker    `json:"workers"`
	MaxWorkers  int          `json:"maxWorkers"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// NewRun creates an idle run with a fresh identifier.
func NewRun(goal, targetDir string, maxWorkers int) *Run {
	return &Run{
		ID:         NewID(),
		Goal:       goal,
		TargetDir:  targetDir,
		Status:     RunIdle,
		Tasks:      []*Task{},
		Judgements: []*Judgement{},
		Workers:    []*Worker{},
		MaxWorkers: ClampWorkers(maxWorkers),
		CreatedAt:  time.Now(),
	}
}

// Lock acquires the per-run guard.
func (r *Run) Lock() { r.mu.Lock() }

// Unlock releases the per-run guard.
func (r *Run) Unlock() { r.mu.Unlock() }

// Snapshot returns a deep copy of the run. Safe for concurrent use;
// the copy shares no mutable state with the original.
func (r *Run) Snapshot() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// snapshotLocked is Snapshot for callers already holding the guard.
func (r *Run) snapshotLocked() *Run {
	cp := &Run{
		ID:         r.ID,
		Goal:       r.Goal,
		TargetDir:  r.TargetDir,
		Status:     r.Status,
		Analysis:   r.Analysis,
		MaxWorkers: r.MaxWorkers,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	cp.Tasks = make([]*Task, len(r.Tasks))
	for i, t := range r.Tasks {
		cp.Tasks[i] = t.clone()
	}
	cp.Judgements = make([]*Judgement, len(r.Judgements))
	for i, j := range r.Judgements {
		cp.Judgements[i] = j.clone()
	}
	cp.Workers = make([]*Worker, len(r.Workers))
	for i, w := range r.Workers {
		cp.Workers[i] = w.clone()
	}
	return cp
}

// SnapshotLocked returns a deep copy while the caller holds the guard.
func (r *Run) SnapshotLocked() *Run { return r.snapshotLocked() }

// Task returns the task with the given ID, or nil.
// Caller must hold the guard.
func (r *Run) Task(id string) *Task {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// WorkerByID returns the worker with the given ID, or nil.
// Caller must hold the guard.
func (r *Run) WorkerByID(id string) *Worker {
	for _, w := range r.Workers {
		if w.ID == id {
			return w
		}
	}
	return nil
}

// RunningWorkers counts workers currently in status running.
// Caller must hold the guard.
func (r *Run) RunningWorkers() int {
	n := 0
	for _, w := range r.Workers {
		if w.Status == WorkerRunning {
			n++
		}
	}
	return n
}

// HasPendingTasks reports whether any task is still pending.
// Caller must hold the guard.
func (r *Run) HasPendingTasks() bool {
	for _, t := range r.Tasks {
		if t.Status == TaskPending {
			return true
		}
	}
	return false
}

// HasTasksInProgress reports whether any task is in progress.
// Caller must hold the guard.
func (r *Run) HasTasksInProgress() bool {
	for _, t := range r.Tasks {
		if t.Status == TaskInProgress {
			return true
		}
	}
	return false
}
