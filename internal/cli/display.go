package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/driftworks/crew/internal/model"
)

var (
	styleCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleActive    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleMuted     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleID        = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// renderRunStatus colors a run status for terminal output.
func renderRunStatus(s model.RunStatus) string {
	switch s {
	case model.RunCompleted:
		return styleCompleted.Render(string(s))
	case model.RunFailed, model.RunStopped:
		return styleFailed.Render(string(s))
	case model.RunIdle, model.RunPaused:
		return styleMuted.Render(string(s))
	default:
		return styleActive.Render(string(s))
	}
}

func renderTaskStatus(s model.TaskStatus) string {
	switch s {
	case model.TaskCompleted:
		return styleCompleted.Render(string(s))
	case model.TaskFailed:
		return styleFailed.Render(string(s))
	case model.TaskInProgress:
		return styleActive.Render(string(s))
	default:
		return styleMuted.Render(string(s))
	}
}

// taskCounts summarizes tasks as "3/5 done" style fractions.
func taskCounts(run *model.Run) string {
	done := 0
	for _, t := range run.Tasks {
		if t.Status == model.TaskCompleted {
			done++
		}
	}
	return fmt.Sprintf("%d/%d tasks", done, len(run.Tasks))
}

// runAge renders how long ago the run was created.
func runAge(run *model.Run, now time.Time) string {
	d := now.Sub(run.CreatedAt).Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// truncateGoal shortens a goal for one-line listings.
func truncateGoal(goal string, max int) string {
	goal = strings.ReplaceAll(goal, "\n", " ")
	if len(goal) <= max {
		return goal
	}
	return goal[:max-1] + "…"
}
