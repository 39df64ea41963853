package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/driftworks/crew/internal/model"
)

func activity(typ model.ActivityType, summary string) model.Activity {
	return model.Activity{Type: typ, Summary: summary, Time: time.Now()}
}

func TestDigest_Empty(t *testing.T) {
	assert.Empty(t, Digest(nil))
	assert.Empty(t, Digest(model.NewWorker("t1")))
}

func TestDigest_CountsAndSections(t *testing.T) {
	w := model.NewWorker("t1")
	w.Activity = []model.Activity{
		activity(model.ActivityToolCall, "Read main.go"),
		activity(model.ActivityBash, "go test ./..."),
		activity(model.ActivityFileCreate, "server.go"),
		activity(model.ActivityFileEdit, "server.go"),
		activity(model.ActivityText, "wrote the handler"),
		activity(model.ActivityError, "exit status 1"),
	}

	got := Digest(w)
	assert.Contains(t, got, "4 tool calls")
	assert.Contains(t, got, "1 files touched")
	assert.Contains(t, got, "1 shell commands")
	assert.Contains(t, got, "Files: server.go")
	assert.Contains(t, got, "Commands: go test ./...")
	assert.Contains(t, got, "Last error: exit status 1")
	assert.Contains(t, got, "wrote the handler")
}

func TestDigest_DeduplicatesFiles(t *testing.T) {
	w := model.NewWorker("t1")
	for i := 0; i < 5; i++ {
		w.Activity = append(w.Activity, activity(model.ActivityFileEdit, "same.go"))
	}

	got := Digest(w)
	assert.Equal(t, 1, strings.Count(got, "same.go"))
}

func TestDigest_KeepsOnlyTrailingNotes(t *testing.T) {
	w := model.NewWorker("t1")
	w.Activity = append(w.Activity,
		activity(model.ActivityText, "first"),
		activity(model.ActivityText, "second"),
		activity(model.ActivityText, "third"),
		activity(model.ActivityText, "fourth"),
	)

	got := Digest(w)
	assert.NotContains(t, got, "first")
	assert.Contains(t, got, "second")
	assert.Contains(t, got, "fourth")
}

func TestDigest_TruncatesLongLines(t *testing.T) {
	w := model.NewWorker("t1")
	long := strings.Repeat("x", 500)
	w.Activity = append(w.Activity, activity(model.ActivityError, long))

	got := Digest(w)
	assert.Less(t, len(got), 300)
	assert.Contains(t, got, "…")
}

func TestDigest_CapsFileList(t *testing.T) {
	w := model.NewWorker("t1")
	for i := 0; i < 15; i++ {
		w.Activity = append(w.Activity, activity(model.ActivityFileCreate, strings.Repeat("f", i+1)+".go"))
	}

	got := Digest(w)
	assert.Contains(t, got, "+5 more")
}
