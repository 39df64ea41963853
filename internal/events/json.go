package events

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// JSONEvent is the wire format for events serialized as NDJSON lines
// (one object per line) when output is piped.
type JSONEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// IsJSONMode returns true if NDJSON event output should be enabled.
// Checks: (1) explicit forceJSON flag, (2) non-TTY stdout.
func IsJSONMode(forceJSON bool) bool {
	if forceJSON {
		return true
	}
	if os.Stdout != nil {
		return !term.IsTerminal(int(os.Stdout.Fd()))
	}
	return true
}

// JSONEmitter writes events as JSON lines to a writer.
// Thread-safe for concurrent Emit calls.
type JSONEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONEmitter creates a JSON emitter that writes to w.
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

// Emit writes one event as a single JSON line.
func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(JSONEvent{
		Type:      string(event.Type),
		Timestamp: event.Time,
		Payload:   event.Payload,
	})
}

// Mirror drains a subscriber into the emitter until the subscription
// closes. Encoding errors are ignored; the stream is best-effort.
func (e *JSONEmitter) Mirror(sub *Subscriber) {
	for event := range sub.Events() {
		_ = e.Emit(event)
	}
}
