// Package journal records bus events in an append-only SQLite table
// for post-hoc inspection. It is an observability sidecar: the run
// store remains the durable source of truth, and journal failures are
// never fatal.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/driftworks/crew/internal/events"
)

// DB wraps the SQLite connection holding the event journal.
type DB struct {
	conn *sql.DB
}

// Entry is one recorded event.
type Entry struct {
	ID        int64           `json:"id"`
	RunID     string          `json:"runId,omitempty"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Open creates or opens the journal database at the given path,
// enabling WAL mode and applying the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS events (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT,
    event_type   TEXT NOT NULL,
    payload_json TEXT,
    created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("applying journal schema: %w", err)
	}
	return nil
}

// Append records one event. Payloads that fail to serialize are
// stored with a null payload rather than dropped.
func (db *DB) Append(e events.Event) error {
	var payload any
	if e.Payload != nil {
		data, err := json.Marshal(e.Payload)
		if err == nil {
			payload = string(data)
		}
	}
	_, err := db.conn.Exec(
		"INSERT INTO events (run_id, event_type, payload_json, created_at) VALUES (?, ?, ?, ?)",
		e.RunID(), string(e.Type), payload, e.Time,
	)
	if err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return nil
}

// Record drains a bus subscriber into the journal until the
// subscription closes. Append failures are logged and skipped.
func (db *DB) Record(sub *events.Subscriber) {
	for e := range sub.Events() {
		if err := db.Append(e); err != nil {
			log.Printf("ERROR: journal append failed: %v", err)
		}
	}
}

// Tail returns the newest entries, oldest first, optionally filtered
// by run. limit <= 0 defaults to 100.
func (db *DB) Tail(runID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT id, run_id, event_type, payload_json, created_at FROM events"
	args := []any{}
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var runID sql.NullString
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &runID, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.RunID = runID.String
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first for display.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
