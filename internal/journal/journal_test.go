package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
)

func testJournal(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournal_AppendAndTail(t *testing.T) {
	db := testJournal(t)

	run := model.NewRun("goal", "/tmp", 1)
	require.NoError(t, db.Append(events.Event{
		Type:    events.RunCreated,
		Payload: run,
		Time:    time.Now(),
	}))
	require.NoError(t, db.Append(events.Event{
		Type:    events.Log,
		Payload: events.LogPayload{RunID: run.ID, Message: "hello"},
		Time:    time.Now(),
	}))

	entries, err := db.Tail("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run:created", entries[0].Type)
	assert.Equal(t, run.ID, entries[0].RunID)
	assert.Equal(t, "log", entries[1].Type)
	assert.NotEmpty(t, entries[1].Payload)
}

func TestJournal_TailFiltersByRun(t *testing.T) {
	db := testJournal(t)

	for _, runID := range []string{"A", "A", "B"} {
		require.NoError(t, db.Append(events.Event{
			Type:    events.Log,
			Payload: events.LogPayload{RunID: runID, Message: "m"},
			Time:    time.Now(),
		}))
	}

	entries, err := db.Tail("A", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = db.Tail("B", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJournal_TailLimitNewestWins(t *testing.T) {
	db := testJournal(t)

	for i := 0; i < 20; i++ {
		require.NoError(t, db.Append(events.Event{
			Type:    events.Log,
			Payload: events.LogPayload{Message: "m"},
			Time:    time.Now(),
		}))
	}

	entries, err := db.Tail("", 5)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	// Oldest-first ordering of the newest five.
	assert.Less(t, entries[0].ID, entries[4].ID)
	assert.EqualValues(t, 20, entries[4].ID)
}
