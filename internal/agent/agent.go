// Package agent launches and tracks worker executions. A launcher
// spawns one agent process per task; the returned handle exposes a
// done future and a cancel. Workers append logs and activity to their
// own record and commit the task's terminal state before the done
// future resolves.
package agent

import (
	"context"
	"sync"

	"github.com/driftworks/crew/internal/model"
)

// Handle tracks one running worker.
type Handle struct {
	// Worker is the record mutated by the running agent. The caller
	// appends it to the run's worker list.
	Worker *model.Worker

	done   chan struct{}
	cancel context.CancelFunc
}

// NewHandle builds a handle around a worker record. Launcher
// implementations call Finish once the worker's and task's terminal
// state is committed.
func NewHandle(worker *model.Worker, cancel context.CancelFunc) *Handle {
	return &Handle{Worker: worker, done: make(chan struct{}), cancel: cancel}
}

// Finish resolves the done future. Must be called exactly once.
func (h *Handle) Finish() { close(h.done) }

// Done resolves after the worker and its task have reached their
// terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel makes the worker stop promptly and terminate as failed.
// Idempotent.
func (h *Handle) Cancel() { h.cancel() }

// Launcher runs agent processes for tasks.
type Launcher interface {
	// Spawn starts a worker for the task inside the run's target
	// directory. Returns immediately with a handle.
	Spawn(ctx context.Context, run *model.Run, task *model.Task) (*Handle, error)

	// Cancel fires the cancel handle of the listed workers.
	Cancel(ids []string)

	// CancelAll fires every active worker's cancel handle.
	CancelAll()

	// ListActive returns the IDs of workers currently running.
	ListActive() []string
}

// registry is the shared active-worker table embedded by launcher
// implementations.
type registry struct {
	mu     sync.Mutex
	active map[string]*Handle
}

func newRegistry() registry {
	return registry{active: make(map[string]*Handle)}
}

func (r *registry) add(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[h.Worker.ID] = h
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// Cancel fires the cancel handle of the listed workers.
func (r *registry) Cancel(ids []string) {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(ids))
	for _, id := range ids {
		if h, ok := r.active[id]; ok {
			handles = append(handles, h)
		}
	}
	r.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

// CancelAll fires every active worker's cancel handle.
func (r *registry) CancelAll() {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.active))
	for _, h := range r.active {
		handles = append(handles, h)
	}
	r.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

// ListActive returns the IDs of workers currently running.
func (r *registry) ListActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	return ids
}
