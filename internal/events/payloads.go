package events

import "github.com/driftworks/crew/internal/model"

// Payload shapes carried by the fixed event vocabulary. run:* events
// carry a full run snapshot; entity events carry the entity snapshot
// plus the owning run's ID so consumers never need a lookup.

// TaskPayload accompanies task:updated.
type TaskPayload struct {
	RunID string      `json:"runId"`
	Task  *model.Task `json:"task"`
}

// WorkerPayload accompanies worker:created and worker:updated.
type WorkerPayload struct {
	RunID  string        `json:"runId"`
	Worker *model.Worker `json:"worker"`
}

// WorkerLogPayload accompanies worker:log.
type WorkerLogPayload struct {
	RunID    string `json:"runId"`
	WorkerID string `json:"workerId"`
	Line     string `json:"line"`
}

// JudgementPayload accompanies judgement:created.
type JudgementPayload struct {
	RunID     string           `json:"runId"`
	Judgement *model.Judgement `json:"judgement"`
}

// LogPayload accompanies log events.
type LogPayload struct {
	RunID   string `json:"runId,omitempty"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

// RunID extracts the owning run's identifier from an event payload,
// or "" when the payload carries none.
func (e Event) RunID() string {
	switch p := e.Payload.(type) {
	case *model.Run:
		return p.ID
	case TaskPayload:
		return p.RunID
	case WorkerPayload:
		return p.RunID
	case WorkerLogPayload:
		return p.RunID
	case JudgementPayload:
		return p.RunID
	case LogPayload:
		return p.RunID
	}
	return ""
}
