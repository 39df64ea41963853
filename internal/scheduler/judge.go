package scheduler

import (
	"sync"
	"time"

	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
)

// judgeQueue is the FIFO of tasks awaiting judgement plus the
// single-consumer guard. Judgements are strictly serial per run.
type judgeQueue struct {
	mu      sync.Mutex
	items   []*model.Task
	judging bool
}

func (q *judgeQueue) push(t *model.Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
}

// claim marks the queue as being drained. Returns false when another
// drainer is already active.
func (q *judgeQueue) claim() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.judging {
		return false
	}
	q.judging = true
	return true
}

func (q *judgeQueue) release() {
	q.mu.Lock()
	q.judging = false
	q.mu.Unlock()
}

// pop removes the front task, or returns nil when the queue is empty.
func (q *judgeQueue) pop() *model.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t
}

func (q *judgeQueue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// busy reports whether a drain is active or work is queued.
func (q *judgeQueue) busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.judging || len(q.items) > 0
}

// processJudgeQueue drains the judge queue. Re-entrant safe: a second
// invoker observes the claim and returns; the active drainer picks up
// items added while it runs.
func (p *pipeline) processJudgeQueue() {
	if !p.judge.claim() {
		return
	}
	defer p.judge.release()

	for p.ctx.Err() == nil {
		task := p.judge.pop()
		if task == nil {
			return
		}
		p.judgeTask(task)

		// Revert judging to executing only once the queue is empty,
		// so back-to-back judgements do not flicker the status.
		if p.judge.empty() {
			p.run.Lock()
			reverted := p.run.Status == model.RunJudging
			if reverted {
				p.run.Status = model.RunExecuting
			}
			p.run.Unlock()
			if reverted {
				p.persist()
			}
		}
	}
}

// judgeTask runs one judge invocation and applies its verdict: append
// the judgement, spawn any follow-up tasks, and on goal completion
// cancel remaining pending work.
func (p *pipeline) judgeTask(task *model.Task) {
	p.run.Lock()
	if !p.run.Status.IsTerminal() {
		p.run.Status = model.RunJudging
	}
	snapRun := p.run.SnapshotLocked()
	snapTask := cloneTask(task)
	p.run.Unlock()
	p.persist()
	p.logf("INFO", "judging task %q", task.Title)

	verdict, err := p.planner.Judge(p.ctx, snapRun, snapTask)
	if p.ctx.Err() != nil {
		return
	}

	judgement := model.NewJudgement(task.ID)
	var newTasks []*model.Task
	if err != nil {
		// Never fatal; record the failure so progress stays visible.
		judgement.Assessment = "Judge error: " + err.Error()
		p.logf("ERROR", "judging task %q: %v", task.Title, err)
	} else {
		judgement.Assessment = verdict.Assessment
		judgement.GoalComplete = verdict.GoalComplete
		for _, spec := range verdict.NewTasks {
			t := model.NewTask(spec.Title, spec.Description, spec.Priority, nil)
			t.SpawnedBy = judgement.ID
			newTasks = append(newTasks, t)
			judgement.NewTaskIDs = append(judgement.NewTaskIDs, t.ID)
		}
	}

	now := time.Now()
	p.run.Lock()
	p.run.Tasks = append(p.run.Tasks, newTasks...)
	if err == nil {
		for i, spec := range verdict.NewTasks {
			newTasks[i].DependsOn = resolveDeps(p.run.Tasks, spec.DependsOn)
		}
	}
	p.run.Judgements = append(p.run.Judgements, judgement)

	var cancelled []*model.Task
	goalDone := false
	if judgement.GoalComplete {
		for _, t := range p.run.Tasks {
			if t.Status == model.TaskPending {
				t.Status = model.TaskCancelled
				t.CompletedAt = &now
				cancelled = append(cancelled, cloneTask(t))
			}
		}
		if !p.run.HasTasksInProgress() {
			p.run.Status = model.RunCompleted
			p.run.CompletedAt = &now
			goalDone = true
		}
	}

	taskSnaps := make([]*model.Task, len(newTasks))
	for i, t := range newTasks {
		taskSnaps[i] = cloneTask(t)
	}
	p.run.Unlock()

	for _, t := range taskSnaps {
		p.bus.Emit(events.TaskUpdated, events.TaskPayload{RunID: p.run.ID, Task: t})
	}
	p.bus.Emit(events.JudgementCreated, events.JudgementPayload{RunID: p.run.ID, Judgement: judgement})
	if judgement.Assessment != "" {
		p.logf("INFO", "judgement for %q: %s", task.Title, judgement.Assessment)
	}
	for _, t := range cancelled {
		p.bus.Emit(events.TaskUpdated, events.TaskPayload{RunID: p.run.ID, Task: t})
	}

	p.save()
	if goalDone {
		p.logf("INFO", "goal complete")
		p.bus.Emit(events.RunCompleted, p.run.Snapshot())
	} else if judgement.GoalComplete {
		p.logf("INFO", "goal marked complete, waiting for running tasks")
	}

	select {
	case p.wake <- struct{}{}:
	default:
	}
}
