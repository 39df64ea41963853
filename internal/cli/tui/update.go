package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/driftworks/crew/internal/model"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Quitting = true
			return m, tea.Quit
		case "l":
			m.ShowLogs = !m.ShowLogs
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		return m, tickCmd()

	case RunMsg:
		m.Run = msg.Run
		if m.Run.Status.IsTerminal() {
			m.Done = true
			return m, tea.Quit
		}

	case TaskMsg:
		m.mergeTask(msg.Task)

	case WorkerMsg:
		m.mergeWorker(msg.Worker)

	case LogMsg:
		m.LogLines = append(m.LogLines, msg.Line)
		if len(m.LogLines) > m.LogLimit {
			m.LogLines = m.LogLines[len(m.LogLines)-m.LogLimit:]
		}

	case DoneMsg:
		m.Done = true
		return m, tea.Quit

	case StreamClosedMsg:
		m.Quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// mergeTask replaces or appends one task in the held snapshot.
func (m *Model) mergeTask(task *model.Task) {
	if m.Run == nil || task == nil {
		return
	}
	for i, t := range m.Run.Tasks {
		if t.ID == task.ID {
			m.Run.Tasks[i] = task
			return
		}
	}
	m.Run.Tasks = append(m.Run.Tasks, task)
}

// mergeWorker replaces or appends one worker in the held snapshot.
func (m *Model) mergeWorker(worker *model.Worker) {
	if m.Run == nil || worker == nil {
		return
	}
	for i, w := range m.Run.Workers {
		if w.ID == worker.ID {
			m.Run.Workers[i] = worker
			return
		}
	}
	m.Run.Workers = append(m.Run.Workers, worker)
}
