package planner

import (
	"fmt"
	"strings"

	"github.com/driftworks/crew/internal/model"
)

// BuildPlanPrompt renders the initial-planning prompt for a run.
// The model must answer with a single JSON object matching Plan.
func BuildPlanPrompt(run *model.Run) string {
	var b strings.Builder

	b.WriteString("You are the planning component of an autonomous coding system.\n")
	b.WriteString("Break the goal below into independent tasks that coding agents can execute in parallel.\n\n")
	fmt.Fprintf(&b, "Goal: %s\n", run.Goal)
	fmt.Fprintf(&b, "Target directory: %s\n", run.TargetDir)
	fmt.Fprintf(&b, "Maximum parallel agents: %d\n\n", run.MaxWorkers)

	b.WriteString("Rules:\n")
	b.WriteString("- Each task must be completable by one agent working alone in the target directory.\n")
	b.WriteString("- Declare dependencies between tasks by title; a task only starts after its dependencies complete.\n")
	b.WriteString("- Prefer fewer, larger tasks over many tiny ones.\n")
	b.WriteString("- Priority is an integer; smaller runs first. Default 5.\n\n")

	b.WriteString("Respond with ONLY a JSON object, no prose, in this shape:\n")
	b.WriteString(`{"analysis": "...", "tasks": [{"title": "...", "description": "...", "priority": 5, "dependsOn": ["title of another task"]}]}`)
	b.WriteString("\n")

	return b.String()
}

// BuildJudgePrompt renders the judging prompt for a completed task.
// digest is the compact activity summary of the worker that ran it.
func BuildJudgePrompt(run *model.Run, task *model.Task, digest string) string {
	var b strings.Builder

	b.WriteString("You are the judge component of an autonomous coding system.\n")
	b.WriteString("A task has finished. Assess progress toward the goal and decide what happens next.\n\n")
	fmt.Fprintf(&b, "Goal: %s\n", run.Goal)
	fmt.Fprintf(&b, "Target directory: %s\n\n", run.TargetDir)

	fmt.Fprintf(&b, "Finished task: %s\n", task.Title)
	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	if task.Result != "" {
		fmt.Fprintf(&b, "Result: %s\n", task.Result)
	}
	if task.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", task.Error)
	}
	if digest != "" {
		fmt.Fprintf(&b, "Agent activity:\n%s\n", digest)
	}

	b.WriteString("\nAll tasks in this run:\n")
	for _, t := range run.Tasks {
		fmt.Fprintf(&b, "- [%s] %s\n", t.Status, t.Title)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Set goalComplete true only when the goal is fully satisfied.\n")
	b.WriteString("- Spawn newTasks only for concrete remaining work; dependencies are by title and may reference existing tasks.\n")
	b.WriteString("- If the task failed, decide whether to retry it as a new task or work around it.\n\n")

	b.WriteString("Respond with ONLY a JSON object, no prose, in this shape:\n")
	b.WriteString(`{"assessment": "...", "goalComplete": false, "newTasks": [{"title": "...", "description": "...", "priority": 5, "dependsOn": []}]}`)
	b.WriteString("\n")

	return b.String()
}

// ExtractJSON pulls the first top-level JSON object out of model
// output, tolerating code fences and surrounding prose.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "```"); start >= 0 {
		rest := s[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		}
	}
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first < 0 || last <= first {
		return ""
	}
	return s[first : last+1]
}
