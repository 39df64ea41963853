package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the TUI
type Styles struct {
	// Header styling
	Title  lipgloss.Style
	Timer  lipgloss.Style
	Status lipgloss.Style
	Goal   lipgloss.Style

	// Task styling
	TaskActive    lipgloss.Style
	TaskComplete  lipgloss.Style
	TaskFailed    lipgloss.Style
	TaskCancelled lipgloss.Style
	TaskPending   lipgloss.Style
	TaskTitle     lipgloss.Style

	// Progress bar colors
	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style

	// Activity text
	ActivityIcon lipgloss.Style
	ActivityText lipgloss.Style

	// Footer styling
	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	// Status counts
	StatusComplete lipgloss.Style
	StatusFailed   lipgloss.Style
	StatusActive   lipgloss.Style

	// Log area styling
	LogTitle lipgloss.Style
	LogLine  lipgloss.Style
}

// DefaultStyles returns the default TUI styles
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Goal:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),

		TaskActive:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		TaskComplete:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		TaskFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		TaskCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		TaskPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		TaskTitle:     lipgloss.NewStyle().Bold(true),

		ProgressFilled: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		ProgressEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),

		ActivityIcon: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		ActivityText: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),

		StatusComplete: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		StatusActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),

		LogTitle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
		LogLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Icons used in the TUI
const (
	IconActive    = "●"
	IconComplete  = "✓"
	IconFailed    = "✗"
	IconCancelled = "⊘"
	IconPending   = "○"
	IconJudge     = "⚖"
	IconWaiting   = "⏳"
)
