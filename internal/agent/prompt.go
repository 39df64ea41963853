package agent

import (
	"fmt"
	"strings"

	"github.com/driftworks/crew/internal/model"
)

// buildTaskPrompt frames one task for an agent process. Completed
// dependency results are inlined so the agent sees what it builds on.
func buildTaskPrompt(run *model.Run, task *model.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are one worker in a team pursuing this goal:\n%s\n\n", run.Goal)
	fmt.Fprintf(&b, "Your task: %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", task.Description)
	}

	if deps := completedDeps(run, task); len(deps) > 0 {
		b.WriteString("\nAlready completed by other workers:\n")
		for _, dep := range deps {
			fmt.Fprintf(&b, "- %s", dep.Title)
			if dep.Result != "" {
				fmt.Fprintf(&b, ": %s", dep.Result)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nWork only on your task. Other workers may be editing ")
	b.WriteString("unrelated files in this directory at the same time.\n")
	b.WriteString("When you are done, summarize what you changed and how you verified it.")
	return b.String()
}

// completedDeps returns the task's completed dependencies in creation
// order. Caller must hold the run's guard or own the run exclusively.
func completedDeps(run *model.Run, task *model.Task) []*model.Task {
	var deps []*model.Task
	for _, id := range task.DependsOn {
		if dep := run.Task(id); dep != nil && dep.Status == model.TaskCompleted {
			deps = append(deps, dep)
		}
	}
	return deps
}
