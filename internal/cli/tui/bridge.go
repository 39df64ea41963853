package tui

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/driftworks/crew/internal/client"
	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
)

// Bridge pumps daemon stream events into the bubbletea program.
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a new bridge for the given program
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Pump forwards decoded events until the stream closes, then signals
// the program. Run it in its own goroutine.
func (b *Bridge) Pump(stream <-chan client.StreamEvent) {
	for e := range stream {
		if msg := eventToMsg(e); msg != nil {
			b.program.Send(msg)
		}
	}
	b.program.Send(StreamClosedMsg{})
}

// eventToMsg converts one stream event to a tea.Msg, or nil for
// events the view does not render.
func eventToMsg(e client.StreamEvent) tea.Msg {
	switch e.Type {
	case events.RunCreated, events.RunUpdated, events.RunCompleted, events.RunFailed:
		var run model.Run
		if err := json.Unmarshal(e.Payload, &run); err != nil {
			return nil
		}
		return RunMsg{Run: &run}

	case events.TaskUpdated:
		var p events.TaskPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil || p.Task == nil {
			return nil
		}
		return TaskMsg{Task: p.Task}

	case events.WorkerCreated, events.WorkerUpdated:
		var p events.WorkerPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil || p.Worker == nil {
			return nil
		}
		return WorkerMsg{Worker: p.Worker}

	case events.WorkerLog:
		var p events.WorkerLogPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil || p.Line == "" {
			return nil
		}
		return LogMsg{Line: p.Line}

	case events.JudgementCreated:
		var p events.JudgementPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil || p.Judgement == nil {
			return nil
		}
		return LogMsg{Line: "judge: " + p.Judgement.Assessment}

	case events.Log:
		var p events.LogPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil || p.Message == "" {
			return nil
		}
		return LogMsg{Line: p.Message}
	}
	return nil
}
