package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/driftworks/crew/internal/model"
	"github.com/driftworks/crew/internal/summary"
)

// ClaudePlanner implements Planner by shelling out to the Claude CLI.
type ClaudePlanner struct {
	command string
	model   string
}

// NewClaude creates a Claude-backed planner. Empty command defaults
// to "claude"; empty model uses the CLI's default.
func NewClaude(command, model string) *ClaudePlanner {
	if command == "" {
		command = "claude"
	}
	return &ClaudePlanner{command: command, model: model}
}

// Plan implements Planner.
func (p *ClaudePlanner) Plan(ctx context.Context, run *model.Run) (*Plan, error) {
	out, err := p.invoke(ctx, run.TargetDir, BuildPlanPrompt(run))
	if err != nil {
		return nil, fmt.Errorf("planning call failed: %w", err)
	}

	var plan Plan
	if err := decodeInto(out, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan response: %w", err)
	}
	if len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("planner returned no tasks")
	}
	return &plan, nil
}

// Judge implements Planner.
func (p *ClaudePlanner) Judge(ctx context.Context, run *model.Run, task *model.Task) (*Verdict, error) {
	digest := ""
	if w := run.WorkerByID(task.WorkerID); w != nil {
		digest = summary.Digest(w)
	}

	out, err := p.invoke(ctx, run.TargetDir, BuildJudgePrompt(run, task, digest))
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}

	var verdict Verdict
	if err := decodeInto(out, &verdict); err != nil {
		return nil, fmt.Errorf("parsing judge response: %w", err)
	}
	return &verdict, nil
}

// invoke runs the CLI with the prompt and returns its stdout.
func (p *ClaudePlanner) invoke(ctx context.Context, dir, prompt string) (string, error) {
	args := []string{"--dangerously-skip-permissions", "-p", prompt}
	if p.model != "" {
		args = append(args, "--model", p.model)
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%s: %w (stderr: %s)", p.command, err, stderr.String())
	}
	return stdout.String(), nil
}

func decodeInto(out string, v any) error {
	raw := ExtractJSON(out)
	if raw == "" {
		return fmt.Errorf("no JSON object in model output")
	}
	return json.Unmarshal([]byte(raw), v)
}
