package agent

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
)

// scanBufferSize accommodates single stream-json lines carrying large
// tool inputs.
const scanBufferSize = 1 << 20

// ClaudeLauncher runs one Claude CLI process per task and folds its
// stream-json output into the worker record.
type ClaudeLauncher struct {
	registry

	bus     *events.Bus
	command string
	model   string
}

// NewClaude creates a Claude-backed launcher. Empty command defaults
// to "claude"; empty model uses the CLI's default.
func NewClaude(bus *events.Bus, command, model string) *ClaudeLauncher {
	if command == "" {
		command = "claude"
	}
	return &ClaudeLauncher{
		registry: newRegistry(),
		bus:      bus,
		command:  command,
		model:    model,
	}
}

// Spawn implements Launcher. The caller must hold the run's guard:
// the task prompt is assembled from the run's task list here, before
// the agent goroutine detaches.
func (l *ClaudeLauncher) Spawn(ctx context.Context, run *model.Run, task *model.Task) (*Handle, error) {
	worker := model.NewWorker(task.ID)
	prompt := buildTaskPrompt(run, task)

	cctx, cancel := context.WithCancel(ctx)
	h := NewHandle(worker, cancel)
	l.add(h)

	go l.execute(cctx, run, task, h, prompt)
	return h, nil
}

// execute drives the agent process to completion and commits the
// worker's and task's terminal state before resolving the handle.
func (l *ClaudeLauncher) execute(ctx context.Context, run *model.Run, task *model.Task, h *Handle, prompt string) {
	defer func() {
		l.remove(h.Worker.ID)
		h.Finish()
	}()

	result, err := l.stream(ctx, run, h.Worker, prompt)
	l.commit(ctx, run, task, h.Worker, result, err)
}

// stream runs the CLI and consumes its stdout line by line. Returns
// the final result text on success.
func (l *ClaudeLauncher) stream(ctx context.Context, run *model.Run, w *model.Worker, prompt string) (string, error) {
	args := []string{
		"--dangerously-skip-permissions",
		"--verbose",
		"--output-format", "stream-json",
		"-p", prompt,
	}
	if l.model != "" {
		args = append(args, "--model", l.model)
	}

	cmd := exec.CommandContext(ctx, l.command, args...)
	cmd.Dir = run.TargetDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting %s: %w", l.command, err)
	}

	var (
		result    string
		hadResult bool
		streamErr bool
	)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		parsed, perr := parseStreamLine(line, time.Now())
		if perr != nil {
			log.Printf("WARN: worker %s: %v", w.ID, perr)
			continue
		}
		if parsed.IsResult {
			hadResult = true
			result = parsed.Result
			streamErr = streamErr || parsed.IsError
		}

		l.record(run, w, string(line), parsed.Activity)
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if waitErr != nil {
		return "", fmt.Errorf("%s exited: %w (stderr: %s)", l.command, waitErr, strings.TrimSpace(stderr.String()))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading agent output: %w", err)
	}
	if streamErr {
		return "", fmt.Errorf("agent reported failure: %s", truncateErr(result))
	}
	if !hadResult {
		return "", fmt.Errorf("agent produced no result")
	}
	return result, nil
}

// record appends a raw log line and its activity under the run's
// guard, then mirrors both to the bus.
func (l *ClaudeLauncher) record(run *model.Run, w *model.Worker, line string, activity []model.Activity) {
	run.Lock()
	w.Logs = append(w.Logs, line)
	w.Activity = append(w.Activity, activity...)
	snap := *w
	snap.Logs = nil
	snap.Activity = append([]model.Activity(nil), w.Activity...)
	run.Unlock()

	l.bus.Emit(events.WorkerLog, events.WorkerLogPayload{
		RunID:    run.ID,
		WorkerID: w.ID,
		Line:     line,
	})
	if len(activity) > 0 {
		l.bus.Emit(events.WorkerUpdated, events.WorkerPayload{RunID: run.ID, Worker: &snap})
	}
}

// commit writes the terminal worker state and, unless the context was
// cancelled, the task's terminal state. On cancellation the task is
// left alone so the caller's rollback decides its fate.
func (l *ClaudeLauncher) commit(ctx context.Context, run *model.Run, task *model.Task, w *model.Worker, result string, err error) {
	now := time.Now()

	run.Lock()
	w.CompletedAt = &now
	switch {
	case ctx.Err() != nil:
		w.Status = model.WorkerFailed
	case err != nil:
		w.Status = model.WorkerFailed
		task.Status = model.TaskFailed
		task.Error = truncateErr(err.Error())
		task.CompletedAt = &now
	default:
		w.Status = model.WorkerCompleted
		task.Status = model.TaskCompleted
		task.Result = result
		task.CompletedAt = &now
	}
	workerSnap := *w
	workerSnap.Logs = nil
	workerSnap.Activity = append([]model.Activity(nil), w.Activity...)
	taskSnap := *task
	cancelled := ctx.Err() != nil
	run.Unlock()

	l.bus.Emit(events.WorkerUpdated, events.WorkerPayload{RunID: run.ID, Worker: &workerSnap})
	if !cancelled {
		l.bus.Emit(events.TaskUpdated, events.TaskPayload{RunID: run.ID, Task: &taskSnap})
	}
}

func truncateErr(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
