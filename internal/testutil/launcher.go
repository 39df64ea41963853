package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/driftworks/crew/internal/agent"
	"github.com/driftworks/crew/internal/model"
)

// StubLauncher resolves workers after a tick, parks gated titles
// until released, and scripts failures and spawn errors by title.
type StubLauncher struct {
	mu         sync.Mutex
	handles    map[string]*agent.Handle
	failures   map[string]string
	spawnErrs  map[string]error
	gates      map[string]chan struct{}
	running    int
	maxRunning int
}

// NewLauncher creates a stub whose workers all succeed with "ok".
func NewLauncher() *StubLauncher {
	return &StubLauncher{
		handles:   make(map[string]*agent.Handle),
		failures:  make(map[string]string),
		spawnErrs: make(map[string]error),
		gates:     make(map[string]chan struct{}),
	}
}

// FailTask makes the worker for the titled task fail with msg.
func (l *StubLauncher) FailTask(title, msg string) *StubLauncher {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[title] = msg
	return l
}

// FailSpawn makes Spawn itself fail for the titled task.
func (l *StubLauncher) FailSpawn(title string, err error) *StubLauncher {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spawnErrs[title] = err
	return l
}

// Gate parks the titled task's worker until the returned channel is
// closed or the worker is cancelled.
func (l *StubLauncher) Gate(title string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan struct{})
	l.gates[title] = ch
	return ch
}

// Ungate removes a gate so later spawns of the title run normally.
func (l *StubLauncher) Ungate(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.gates, title)
}

// PeakRunning returns the highest concurrent worker count observed.
func (l *StubLauncher) PeakRunning() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxRunning
}

// Spawn implements agent.Launcher.
func (l *StubLauncher) Spawn(ctx context.Context, run *model.Run, task *model.Task) (*agent.Handle, error) {
	l.mu.Lock()
	if err := l.spawnErrs[task.Title]; err != nil {
		l.mu.Unlock()
		return nil, err
	}
	failMsg := l.failures[task.Title]
	gate := l.gates[task.Title]
	l.running++
	if l.running > l.maxRunning {
		l.maxRunning = l.running
	}
	l.mu.Unlock()

	w := model.NewWorker(task.ID)
	cctx, cancel := context.WithCancel(ctx)
	h := agent.NewHandle(w, cancel)

	l.mu.Lock()
	l.handles[w.ID] = h
	l.mu.Unlock()

	go func() {
		defer h.Finish()
		if gate != nil {
			select {
			case <-cctx.Done():
			case <-gate:
			}
		} else {
			select {
			case <-cctx.Done():
			case <-time.After(2 * time.Millisecond):
			}
		}

		now := time.Now()
		run.Lock()
		w.CompletedAt = &now
		switch {
		case cctx.Err() != nil:
			w.Status = model.WorkerFailed
		case failMsg != "":
			w.Status = model.WorkerFailed
			task.Status = model.TaskFailed
			task.Error = failMsg
			task.CompletedAt = &now
		default:
			w.Status = model.WorkerCompleted
			task.Status = model.TaskCompleted
			task.Result = "ok"
			task.CompletedAt = &now
		}
		run.Unlock()

		l.mu.Lock()
		l.running--
		delete(l.handles, w.ID)
		l.mu.Unlock()
	}()
	return h, nil
}

// Cancel implements agent.Launcher.
func (l *StubLauncher) Cancel(ids []string) {
	l.mu.Lock()
	var hs []*agent.Handle
	for _, id := range ids {
		if h, ok := l.handles[id]; ok {
			hs = append(hs, h)
		}
	}
	l.mu.Unlock()
	for _, h := range hs {
		h.Cancel()
	}
}

// CancelAll implements agent.Launcher.
func (l *StubLauncher) CancelAll() {
	l.mu.Lock()
	var hs []*agent.Handle
	for _, h := range l.handles {
		hs = append(hs, h)
	}
	l.mu.Unlock()
	for _, h := range hs {
		h.Cancel()
	}
}

// ListActive implements agent.Launcher.
func (l *StubLauncher) ListActive() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.handles))
	for id := range l.handles {
		ids = append(ids, id)
	}
	return ids
}
