// Package manager is the public façade over the run map: create,
// start, stop, pause and resume runs, list and fetch them, and settle
// everything on shutdown. It owns every run record; the scheduler
// mutates a run only while the manager keeps it registered.
package manager

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/driftworks/crew/internal/agent"
	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
	"github.com/driftworks/crew/internal/scheduler"
	"github.com/driftworks/crew/internal/store"
)

// TransitionError reports an operation attempted against a run in a
// state that does not allow it.
type TransitionError struct {
	RunID string
	From  model.RunStatus
	Op    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s run %s in status %s", e.Op, e.RunID, e.From)
}

// NotFoundError reports an unknown run identifier.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.RunID)
}

// managedRun pairs a run with its abort handle while a scheduler is
// driving it. cancel and done are nil when no scheduler is active.
type managedRun struct {
	run    *model.Run
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the run map.
type Manager struct {
	mu   sync.Mutex
	runs map[string]*managedRun

	sched  *scheduler.Scheduler
	agents agent.Launcher
	store  *store.Store
	bus    *events.Bus
}

// New creates a manager and loads previously persisted runs. Loaded
// runs arrive already reconciled: nothing is in flight.
func New(sched *scheduler.Scheduler, agents agent.Launcher, st *store.Store, bus *events.Bus) (*Manager, error) {
	m := &Manager{
		runs:   make(map[string]*managedRun),
		sched:  sched,
		agents: agents,
		store:  st,
		bus:    bus,
	}

	loaded, err := st.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading runs: %w", err)
	}
	for _, r := range loaded {
		m.runs[r.ID] = &managedRun{run: r}
	}
	if len(loaded) > 0 {
		log.Printf("INFO: loaded %d runs from %s", len(loaded), st.Dir())
	}
	return m, nil
}

// Create registers a new idle run. maxWorkers is clamped to [1, 10]
// with 0 meaning the default; targetDir must exist.
func (m *Manager) Create(goal, targetDir string, maxWorkers int) (*model.Run, error) {
	if goal == "" {
		return nil, fmt.Errorf("goal must not be empty")
	}
	info, err := os.Stat(targetDir)
	if err != nil {
		return nil, fmt.Errorf("target directory %q: %w", targetDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target %q is not a directory", targetDir)
	}

	run := model.NewRun(goal, targetDir, maxWorkers)

	m.mu.Lock()
	m.runs[run.ID] = &managedRun{run: run}
	m.mu.Unlock()

	if err := m.store.Save(run); err != nil {
		log.Printf("ERROR: saving run %s: %v", run.ID, err)
	}
	m.bus.Emit(events.RunCreated, run.Snapshot())
	return run.Snapshot(), nil
}

// Start launches the scheduler for an idle or paused run.
func (m *Manager) Start(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.runs[runID]
	if !ok {
		return &NotFoundError{RunID: runID}
	}

	mr.run.Lock()
	status := mr.run.Status
	mr.run.Unlock()
	if status != model.RunIdle && status != model.RunPaused {
		return &TransitionError{RunID: runID, From: status, Op: "start"}
	}
	if mr.cancel != nil {
		return &TransitionError{RunID: runID, From: status, Op: "start"}
	}

	m.launchLocked(mr)
	return nil
}

// launchLocked starts a scheduler for the run. Caller holds m.mu.
func (m *Manager) launchLocked(mr *managedRun) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	mr.cancel = cancel
	mr.done = done

	go func() {
		defer close(done)
		m.sched.Execute(ctx, mr.run)

		m.mu.Lock()
		mr.cancel = nil
		mr.done = nil
		m.mu.Unlock()
		cancel()
	}()
}

// Stop aborts a run and marks it stopped. Legal from any non-terminal
// state; stopping an already stopped run is a no-op.
func (m *Manager) Stop(runID string) error {
	m.mu.Lock()
	mr, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return &NotFoundError{RunID: runID}
	}

	now := time.Now()
	mr.run.Lock()
	status := mr.run.Status
	if status == model.RunStopped {
		mr.run.Unlock()
		return nil
	}
	if status.IsTerminal() {
		mr.run.Unlock()
		return &TransitionError{RunID: runID, From: status, Op: "stop"}
	}
	mr.run.Status = model.RunStopped
	mr.run.CompletedAt = &now
	mr.run.Unlock()

	m.abort(mr)
	m.settle(mr)
	return nil
}

// Pause suspends an active run; its tasks roll back for a later
// resume.
func (m *Manager) Pause(runID string) error {
	m.mu.Lock()
	mr, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return &NotFoundError{RunID: runID}
	}

	mr.run.Lock()
	status := mr.run.Status
	if !status.IsActive() {
		mr.run.Unlock()
		return &TransitionError{RunID: runID, From: status, Op: "pause"}
	}
	mr.run.Status = model.RunPaused
	mr.run.Unlock()

	m.abort(mr)
	m.settle(mr)
	return nil
}

// Resume restarts a paused run. A stopped run is reopened: its
// completion time is cleared and it re-enters as paused.
func (m *Manager) Resume(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.runs[runID]
	if !ok {
		return &NotFoundError{RunID: runID}
	}

	mr.run.Lock()
	status := mr.run.Status
	if status != model.RunPaused && status != model.RunStopped {
		mr.run.Unlock()
		return &TransitionError{RunID: runID, From: status, Op: "resume"}
	}
	if status == model.RunStopped {
		mr.run.Status = model.RunPaused
		mr.run.CompletedAt = nil
	}
	mr.run.Unlock()

	if mr.cancel != nil {
		return &TransitionError{RunID: runID, From: status, Op: "resume"}
	}
	m.launchLocked(mr)
	return nil
}

// Get returns a snapshot of one run.
func (m *Manager) Get(runID string) (*model.Run, error) {
	m.mu.Lock()
	mr, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return nil, &NotFoundError{RunID: runID}
	}
	return mr.run.Snapshot(), nil
}

// List returns snapshots of every run, newest first.
func (m *Manager) List() []*model.Run {
	m.mu.Lock()
	out := make([]*model.Run, 0, len(m.runs))
	for _, mr := range m.runs {
		out = append(out, mr.run.Snapshot())
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Runs returns the live run records for the autosave ticker.
func (m *Manager) Runs() []*model.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Run, 0, len(m.runs))
	for _, mr := range m.runs {
		out = append(out, mr.run)
	}
	return out
}

// abort fires the run's abort handle and waits for its scheduler to
// settle. No-op when no scheduler is active.
func (m *Manager) abort(mr *managedRun) {
	m.mu.Lock()
	cancel, done := mr.cancel, mr.done
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// settle persists and broadcasts a run after a manual transition that
// did not pass through the scheduler.
func (m *Manager) settle(mr *managedRun) {
	if err := m.store.Save(mr.run); err != nil {
		log.Printf("ERROR: saving run %s: %v", mr.run.ID, err)
	}
	m.bus.Emit(events.RunUpdated, mr.run.Snapshot())
}

// Shutdown aborts every active run and persists everything. Active
// runs park as paused so a restart can resume them; terminal states
// are left untouched.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	all := make([]*managedRun, 0, len(m.runs))
	for _, mr := range m.runs {
		all = append(all, mr)
	}
	m.mu.Unlock()

	for _, mr := range all {
		m.abort(mr)
	}
	m.agents.CancelAll()

	for _, mr := range all {
		select {
		case <-ctx.Done():
			log.Printf("WARN: shutdown deadline hit, skipping remaining saves")
			return
		default:
		}
		if err := m.store.Save(mr.run); err != nil {
			log.Printf("ERROR: saving run %s on shutdown: %v", mr.run.ID, err)
		}
	}
}
