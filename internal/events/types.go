package events

import "time"

// EventType identifies what happened.
type EventType string

// The fixed event vocabulary. Payloads are run/task/worker/judgement
// snapshots or plain strings for log lines; subscribers must not
// mutate them.
const (
	RunCreated       EventType = "run:created"
	RunUpdated       EventType = "run:updated"
	RunCompleted     EventType = "run:completed"
	RunFailed        EventType = "run:failed"
	TaskUpdated      EventType = "task:updated"
	WorkerCreated    EventType = "worker:created"
	WorkerUpdated    EventType = "worker:updated"
	WorkerLog        EventType = "worker:log"
	JudgementCreated EventType = "judgement:created"
	Log              EventType = "log"
)

// Event is a single broadcast record. Time is set by the bus on emit.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
	Time    time.Time `json:"time"`
}
