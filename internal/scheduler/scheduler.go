// Package scheduler drives one run's execution pipeline: plan, spawn
// workers for ready tasks up to the parallelism cap, feed finished
// tasks through the serialized judge queue, and detect quiescence.
// One Scheduler instance is shared across runs; per-run state lives in
// a pipeline created for each Execute call.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/driftworks/crew/internal/agent"
	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
	"github.com/driftworks/crew/internal/planner"
	"github.com/driftworks/crew/internal/store"
)

const (
	// idlePoll bounds the wait when nothing is running but pending
	// tasks may become ready after a judge finishes.
	idlePoll = time.Second

	// drainPoll bounds the finalization wait for the judge queue.
	drainPoll = 500 * time.Millisecond
)

// Scheduler runs the per-run pipeline. Safe for concurrent Execute
// calls on distinct runs.
type Scheduler struct {
	planner planner.Planner
	agents  agent.Launcher
	store   *store.Store
	bus     *events.Bus
}

// New wires a scheduler to its collaborators.
func New(p planner.Planner, agents agent.Launcher, st *store.Store, bus *events.Bus) *Scheduler {
	return &Scheduler{planner: p, agents: agents, store: st, bus: bus}
}

// Execute drives the run until it reaches a terminal state or the
// context is cancelled. On cancellation the run is left paused or
// stopped according to the status the caller set before cancelling;
// a bare cancellation (process shutdown) leaves it paused.
func (s *Scheduler) Execute(ctx context.Context, run *model.Run) {
	p := &pipeline{
		Scheduler: s,
		ctx:       ctx,
		run:       run,
		inFlight:  make(map[string]*agent.Handle),
		wake:      make(chan struct{}, 1),
	}
	p.execute()
}

// pipeline is the per-run scheduler state.
type pipeline struct {
	*Scheduler

	ctx context.Context
	run *model.Run

	// inFlight maps task ID to the handle of its running worker.
	// Touched only by the pipeline goroutine.
	inFlight map[string]*agent.Handle

	// wake is signalled by worker-completion watchers.
	wake chan struct{}

	judge judgeQueue
}

func (p *pipeline) execute() {
	if !p.planPhase() {
		return
	}
	p.executionLoop()

	if p.ctx.Err() != nil {
		p.abort()
		return
	}
	p.finalize()
}

// planPhase obtains the initial task set. Returns false when the run
// is already terminal or planning failed. A resume (pending tasks
// already present) skips planning.
func (p *pipeline) planPhase() bool {
	p.run.Lock()
	if p.run.Status.IsTerminal() {
		p.run.Unlock()
		return false
	}
	if p.run.HasPendingTasks() {
		p.run.Unlock()
		p.logf("INFO", "resuming with existing tasks, skipping planning")
		return true
	}
	p.run.Status = model.RunPlanning
	snap := p.run.SnapshotLocked()
	p.run.Unlock()
	p.persist()

	plan, err := p.planner.Plan(p.ctx, snap)
	if p.ctx.Err() != nil {
		// Pause or stop during planning. The caller set the target
		// status before cancelling; abort() settles it.
		p.abort()
		return false
	}
	if err != nil {
		p.fail(err)
		return false
	}

	tasks := make([]*model.Task, 0, len(plan.Tasks))
	for _, spec := range plan.Tasks {
		tasks = append(tasks, model.NewTask(spec.Title, spec.Description, spec.Priority, nil))
	}
	for i, spec := range plan.Tasks {
		tasks[i].DependsOn = resolveDeps(tasks, spec.DependsOn)
	}

	p.run.Lock()
	p.run.Analysis = plan.Analysis
	p.run.Tasks = append(p.run.Tasks, tasks...)
	snaps := make([]*model.Task, len(tasks))
	for i, t := range tasks {
		snaps[i] = cloneTask(t)
	}
	p.run.Unlock()

	for _, t := range snaps {
		p.bus.Emit(events.TaskUpdated, events.TaskPayload{RunID: p.run.ID, Task: t})
	}
	p.persist()
	p.logf("INFO", "planned %d tasks", len(tasks))
	return true
}

// executionLoop spawns workers for ready tasks and waits for
// completions until the run is quiescent, completed or aborted.
func (p *pipeline) executionLoop() {
	p.run.Lock()
	if !p.run.Status.IsTerminal() {
		p.run.Status = model.RunExecuting
	}
	p.run.Unlock()
	p.persist()

	for {
		if p.ctx.Err() != nil {
			return
		}

		p.run.Lock()
		if p.run.Status.IsTerminal() {
			p.run.Unlock()
			return
		}
		ready := readyTasks(p.run)
		spawned := p.spawnReadyLocked(ready)
		p.run.Unlock()

		for _, sp := range spawned {
			p.bus.Emit(events.TaskUpdated, events.TaskPayload{RunID: p.run.ID, Task: sp.task})
			p.bus.Emit(events.WorkerCreated, events.WorkerPayload{RunID: p.run.ID, Worker: sp.worker})
			p.watch(sp.taskRef, sp.handle)
		}
		if len(spawned) > 0 {
			p.persist()
			continue
		}

		if len(p.inFlight) == 0 {
			if p.cancelDeadEnds() {
				p.persist()
				continue
			}
			if p.quiescent() {
				return
			}
			// Pending tasks exist but nothing is ready or running;
			// a judge may be about to spawn or unblock work.
			p.sleep(idlePoll)
			p.sweep()
			continue
		}

		select {
		case <-p.wake:
		case <-p.ctx.Done():
			return
		}
		p.sweep()
	}
}

// spawnedWorker carries what the loop emits after releasing the guard.
type spawnedWorker struct {
	task    *model.Task // snapshot
	worker  *model.Worker
	taskRef *model.Task // live pointer, for the watcher
	handle  *agent.Handle
}

// spawnReadyLocked starts workers for ready tasks up to the cap.
// Caller holds the run's guard.
func (p *pipeline) spawnReadyLocked(ready []*model.Task) []spawnedWorker {
	var out []spawnedWorker
	for len(p.inFlight) < p.run.MaxWorkers && len(ready) > 0 && p.ctx.Err() == nil {
		t := ready[0]
		ready = ready[1:]

		now := time.Now()
		t.Status = model.TaskInProgress
		t.StartedAt = &now

		h, err := p.agents.Spawn(p.ctx, p.run, t)
		if err != nil {
			t.Status = model.TaskFailed
			t.Error = err.Error()
			t.CompletedAt = &now
			p.judge.push(t)
			p.logf("ERROR", "spawning worker for task %q: %v", t.Title, err)
			go p.processJudgeQueue()
			continue
		}

		t.WorkerID = h.Worker.ID
		p.run.Workers = append(p.run.Workers, h.Worker)
		p.inFlight[t.ID] = h

		out = append(out, spawnedWorker{
			task:    cloneTask(t),
			worker:  cloneWorker(h.Worker),
			taskRef: t,
			handle:  h,
		})
	}
	return out
}

// watch enqueues the task for judgement once its worker resolves.
func (p *pipeline) watch(t *model.Task, h *agent.Handle) {
	go func() {
		<-h.Done()
		p.judge.push(t)
		go p.processJudgeQueue()
		p.persist()
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}()
}

// sweep drops in-flight entries whose task has reached a terminal
// state.
func (p *pipeline) sweep() {
	p.run.Lock()
	for id := range p.inFlight {
		t := p.run.Task(id)
		if t == nil || t.Status.IsTerminal() {
			delete(p.inFlight, id)
		}
	}
	p.run.Unlock()
}

// cancelDeadEnds cancels pending tasks blocked by a failed or
// cancelled dependency. Returns true when any task was cancelled.
func (p *pipeline) cancelDeadEnds() bool {
	now := time.Now()

	p.run.Lock()
	var cancelled []*model.Task
	for _, t := range p.run.Tasks {
		if t.Status != model.TaskPending {
			continue
		}
		for _, dep := range t.DependsOn {
			d := p.run.Task(dep)
			if d != nil && (d.Status == model.TaskFailed || d.Status == model.TaskCancelled) {
				t.Status = model.TaskCancelled
				t.Error = model.BlockedByDepsError
				t.CompletedAt = &now
				cancelled = append(cancelled, cloneTask(t))
				break
			}
		}
	}
	p.run.Unlock()

	for _, t := range cancelled {
		p.logf("WARN", "cancelling task %q: %s", t.Title, model.BlockedByDepsError)
		p.bus.Emit(events.TaskUpdated, events.TaskPayload{RunID: p.run.ID, Task: t})
	}
	return len(cancelled) > 0
}

// quiescent reports whether nothing can make further progress: no
// worker running, no judge active or queued, no pending task left.
func (p *pipeline) quiescent() bool {
	if p.judge.busy() {
		return false
	}
	p.run.Lock()
	defer p.run.Unlock()
	return !p.run.HasPendingTasks()
}

// finalize settles a quiescent run: drain the judge queue, then mark
// completed unless the judge already did.
func (p *pipeline) finalize() {
	for id, h := range p.inFlight {
		<-h.Done()
		delete(p.inFlight, id)
	}

	for p.judge.busy() {
		if p.ctx.Err() != nil {
			p.abort()
			return
		}
		p.sleep(drainPoll)
	}
	if p.ctx.Err() != nil {
		p.abort()
		return
	}

	now := time.Now()
	p.run.Lock()
	completed := false
	if !p.run.Status.IsTerminal() {
		p.run.Status = model.RunCompleted
		p.run.CompletedAt = &now
		completed = true
	}
	p.run.Unlock()

	p.save()
	if completed {
		p.logf("INFO", "run completed")
		p.bus.Emit(events.RunCompleted, p.run.Snapshot())
	}
}

// abort settles a cancelled run: stop workers, roll interrupted tasks
// back to pending, and persist the paused or stopped state.
func (p *pipeline) abort() {
	for _, h := range p.inFlight {
		h.Cancel()
	}
	for id, h := range p.inFlight {
		<-h.Done()
		delete(p.inFlight, id)
	}

	p.run.Lock()
	for _, t := range p.run.Tasks {
		if t.Status == model.TaskInProgress {
			t.ResetToPending()
		}
	}
	// Pause and stop set the status before cancelling; anything else
	// (process shutdown) parks the run as paused for a later resume.
	if !p.run.Status.IsTerminal() && p.run.Status != model.RunPaused {
		p.run.Status = model.RunPaused
	}
	status := p.run.Status
	p.run.Unlock()

	p.logf("INFO", "run halted: %s", status)
	p.persist()
}

// fail marks the run failed. Used for planning errors only; worker
// and judge errors never fail a run.
func (p *pipeline) fail(err error) {
	now := time.Now()
	p.run.Lock()
	p.run.Status = model.RunFailed
	p.run.Error = err.Error()
	p.run.CompletedAt = &now
	p.run.Unlock()

	p.logf("ERROR", "run failed: %v", err)
	p.save()
	p.bus.Emit(events.RunFailed, p.run.Snapshot())
}

// persist saves the run and broadcasts its new state. Must be called
// without the run's guard held.
func (p *pipeline) persist() {
	p.save()
	p.bus.Emit(events.RunUpdated, p.run.Snapshot())
}

func (p *pipeline) save() {
	if err := p.store.Save(p.run); err != nil {
		log.Printf("ERROR: saving run %s: %v", p.run.ID, err)
	}
}

func (p *pipeline) sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.wake:
	case <-p.ctx.Done():
	}
}

func (p *pipeline) logf(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("%s: run %s: %s", level, p.run.ID, msg)
	p.bus.Emit(events.Log, events.LogPayload{RunID: p.run.ID, Level: strings.ToLower(level), Message: msg})
}

// readyTasks returns pending tasks whose dependencies are all
// completed, ordered by priority then creation order. Caller must
// hold the run's guard.
func readyTasks(run *model.Run) []*model.Task {
	var ready []*model.Task
	for _, t := range run.Tasks {
		if t.Status != model.TaskPending {
			continue
		}
		ok := true
		for _, dep := range t.DependsOn {
			d := run.Task(dep)
			if d == nil || d.Status != model.TaskCompleted {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, t)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].Priority < ready[j].Priority
	})
	return ready
}

// resolveDeps maps dependency titles to task IDs within the given
// set. Matching is case-insensitive; unresolved titles are dropped.
// Duplicate titles resolve to the first match with a warning.
func resolveDeps(tasks []*model.Task, titles []string) []string {
	byTitle := make(map[string]string, len(tasks))
	for _, t := range tasks {
		key := strings.ToLower(t.Title)
		if _, dup := byTitle[key]; dup {
			log.Printf("WARN: duplicate task title %q, dependencies resolve to the first", t.Title)
			continue
		}
		byTitle[key] = t.ID
	}

	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		if id, ok := byTitle[strings.ToLower(title)]; ok {
			ids = append(ids, id)
		} else {
			log.Printf("WARN: dropping unresolved dependency %q", title)
		}
	}
	return ids
}

func cloneTask(t *model.Task) *model.Task {
	cp := *t
	cp.DependsOn = append([]string(nil), t.DependsOn...)
	return &cp
}

func cloneWorker(w *model.Worker) *model.Worker {
	cp := *w
	cp.Logs = append([]string(nil), w.Logs...)
	cp.Activity = append([]model.Activity(nil), w.Activity...)
	return &cp
}
