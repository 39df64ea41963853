package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/driftworks/crew/internal/model"
)

// Model is the bubbletea model for watching one run. It holds the
// latest run snapshot and merges the finer-grained task and worker
// events into it between full snapshots.
type Model struct {
	RunID  string
	Styles Styles

	// State
	Run       *model.Run
	LogLines  []string
	LogLimit  int
	ShowLogs  bool
	StartTime time.Time
	Width     int
	Height    int

	// Control
	Quitting bool
	Done     bool
}

// NewModel creates a new TUI model for the given run
func NewModel(runID string) *Model {
	return &Model{
		RunID:     runID,
		Styles:    DefaultStyles(),
		LogLimit:  500,
		ShowLogs:  true,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

// TickMsg is sent every second to update the timer
type TickMsg time.Time

// tickCmd returns a command that sends TickMsg every second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// RunMsg carries a full run snapshot
type RunMsg struct {
	Run *model.Run
}

// TaskMsg carries one updated task
type TaskMsg struct {
	Task *model.Task
}

// WorkerMsg carries one created or updated worker
type WorkerMsg struct {
	Worker *model.Worker
}

// LogMsg carries one log line for the log tail
type LogMsg struct {
	Line string
}

// DoneMsg signals the run reached a terminal state
type DoneMsg struct{}

// StreamClosedMsg signals the event stream dropped
type StreamClosedMsg struct{}
