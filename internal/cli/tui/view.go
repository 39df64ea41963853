package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/driftworks/crew/internal/model"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.Done || m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(m.renderTasks())

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")

	if m.ShowLogs && len(m.LogLines) > 0 {
		b.WriteString(m.renderLogs())
	}

	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with timer and run status
func (m *Model) renderHeader() string {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	timer := fmt.Sprintf("[%s]", formatDuration(elapsed))

	status := "connecting"
	goal := ""
	if m.Run != nil {
		status = string(m.Run.Status)
		goal = m.Run.Goal
		if len(goal) > 60 {
			goal = goal[:59] + "…"
		}
	}

	header := fmt.Sprintf("%s  %s  %s",
		m.Styles.Title.Render("Crew"),
		m.Styles.Timer.Render(timer),
		m.Styles.Status.Render(status),
	)
	if goal != "" {
		header += "\n  " + m.Styles.Goal.Render(goal)
	}
	return header
}

// renderTasks renders every task with its status icon and, for tasks
// in progress, the worker's latest activity.
func (m *Model) renderTasks() string {
	if m.Run == nil || len(m.Run.Tasks) == 0 {
		return "  No tasks yet\n\n"
	}

	var b strings.Builder
	for _, t := range m.Run.Tasks {
		b.WriteString(m.renderTask(t))
	}
	b.WriteString("\n")
	return b.String()
}

// renderTask renders a single task line
func (m *Model) renderTask(t *model.Task) string {
	var icon string
	switch t.Status {
	case model.TaskCompleted:
		icon = m.Styles.TaskComplete.Render(IconComplete)
	case model.TaskFailed:
		icon = m.Styles.TaskFailed.Render(IconFailed)
	case model.TaskCancelled:
		icon = m.Styles.TaskCancelled.Render(IconCancelled)
	case model.TaskInProgress:
		icon = m.Styles.TaskActive.Render(IconActive)
	default:
		icon = m.Styles.TaskPending.Render(IconPending)
	}

	line := fmt.Sprintf("  %s %s\n", icon, m.Styles.TaskTitle.Render(t.Title))

	if t.Status == model.TaskInProgress {
		if act := m.latestActivity(t.WorkerID); act != "" {
			line += fmt.Sprintf("      %s %s\n",
				m.Styles.ActivityIcon.Render("↳"),
				m.Styles.ActivityText.Render(act))
		}
	}
	return line
}

// latestActivity returns the most recent activity summary for a worker.
func (m *Model) latestActivity(workerID string) string {
	if workerID == "" {
		return ""
	}
	for _, w := range m.Run.Workers {
		if w.ID == workerID {
			if n := len(w.Activity); n > 0 {
				return w.Activity[n-1].Summary
			}
			return ""
		}
	}
	return ""
}

// renderStatusLine renders the summary counts and the progress bar
func (m *Model) renderStatusLine() string {
	if m.Run == nil {
		return ""
	}

	var done, failed, active int
	for _, t := range m.Run.Tasks {
		switch t.Status {
		case model.TaskCompleted:
			done++
		case model.TaskFailed, model.TaskCancelled:
			failed++
		case model.TaskInProgress:
			active++
		}
	}

	progress := renderProgressBar(m.Styles, done, len(m.Run.Tasks), 20)
	complete := m.Styles.StatusComplete.Render(fmt.Sprintf("%d complete", done))
	failedStr := m.Styles.StatusFailed.Render(fmt.Sprintf("%d failed", failed))
	activeStr := m.Styles.StatusActive.Render(fmt.Sprintf("%d active", active))

	return fmt.Sprintf("  %s %d/%d %s | %s | %s",
		progress, done, len(m.Run.Tasks), complete, failedStr, activeStr)
}

// renderProgressBar creates a progress bar of the given width
func renderProgressBar(st Styles, completed, total, width int) string {
	if total == 0 {
		total = 1
	}
	filled := (completed * width) / total
	if filled > width {
		filled = width
	}
	return "[" +
		st.ProgressFilled.Render(strings.Repeat("█", filled)) +
		st.ProgressEmpty.Render(strings.Repeat("░", width-filled)) +
		"]"
}

// renderLogs renders the tail of the log area
func (m *Model) renderLogs() string {
	show := 8
	if len(m.LogLines) < show {
		show = len(m.LogLines)
	}

	var b strings.Builder
	b.WriteString(m.Styles.LogTitle.Render("  Recent activity"))
	b.WriteString("\n")
	for _, line := range m.LogLines[len(m.LogLines)-show:] {
		if len(line) > 100 {
			line = line[:99] + "…"
		}
		b.WriteString(m.Styles.LogLine.Render("  " + line))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFooter renders the help text
func (m *Model) renderFooter() string {
	q := m.Styles.FooterKey.Render("q")
	l := m.Styles.FooterKey.Render("l")
	return m.Styles.Footer.Render(fmt.Sprintf("  Press %s to detach, %s to toggle logs", q, l))
}

// formatDuration formats a duration as HH:MM:SS
func formatDuration(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
