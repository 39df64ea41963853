package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworks/crew/internal/model"
)

func parse(t *testing.T, line string) parsedLine {
	t.Helper()
	out, err := parseStreamLine([]byte(line), time.Now())
	require.NoError(t, err)
	return out
}

func TestParseStreamLine_ToolUseBash(t *testing.T) {
	out := parse(t, `{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","name":"Bash","input":{"command":"go test ./..."}}]}}`)

	require.Len(t, out.Activity, 1)
	assert.Equal(t, model.ActivityBash, out.Activity[0].Type)
	assert.Equal(t, "go test ./...", out.Activity[0].Summary)
}

func TestParseStreamLine_FileTools(t *testing.T) {
	cases := []struct {
		name string
		want model.ActivityType
	}{
		{"Write", model.ActivityFileCreate},
		{"Edit", model.ActivityFileEdit},
		{"MultiEdit", model.ActivityFileEdit},
	}
	for _, tc := range cases {
		out := parse(t, `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"`+tc.name+`","input":{"file_path":"main.go"}}]}}`)
		require.Len(t, out.Activity, 1, tc.name)
		assert.Equal(t, tc.want, out.Activity[0].Type, tc.name)
		assert.Equal(t, "main.go", out.Activity[0].Summary, tc.name)
	}
}

func TestParseStreamLine_GenericToolCall(t *testing.T) {
	out := parse(t, `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read","input":{"file_path":"go.mod"}}]}}`)

	require.Len(t, out.Activity, 1)
	assert.Equal(t, model.ActivityToolCall, out.Activity[0].Type)
	assert.Equal(t, "Read go.mod", out.Activity[0].Summary)
}

func TestParseStreamLine_TextAndThinking(t *testing.T) {
	out := parse(t, `{"type":"assistant","message":{"content":[{"type":"text","text":"adding the handler"},{"type":"thinking","thinking":"need a mutex here"}]}}`)

	require.Len(t, out.Activity, 2)
	assert.Equal(t, model.ActivityText, out.Activity[0].Type)
	assert.Equal(t, model.ActivityThinking, out.Activity[1].Type)
}

func TestParseStreamLine_BlankTextSkipped(t *testing.T) {
	out := parse(t, `{"type":"assistant","message":{"content":[{"type":"text","text":"  \n"}]}}`)
	assert.Empty(t, out.Activity)
}

func TestParseStreamLine_Result(t *testing.T) {
	out := parse(t, `{"type":"result","subtype":"success","result":"all done"}`)

	assert.True(t, out.IsResult)
	assert.False(t, out.IsError)
	assert.Equal(t, "all done", out.Result)
}

func TestParseStreamLine_ErrorResult(t *testing.T) {
	out := parse(t, `{"type":"result","subtype":"error_max_turns","is_error":true,"result":"ran out of turns"}`)

	assert.True(t, out.IsResult)
	assert.True(t, out.IsError)
	require.Len(t, out.Activity, 1)
	assert.Equal(t, model.ActivityError, out.Activity[0].Type)
}

func TestParseStreamLine_ErrorEvent(t *testing.T) {
	out := parse(t, `{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`)

	assert.True(t, out.IsError)
	require.Len(t, out.Activity, 1)
	assert.Equal(t, "overloaded", out.Activity[0].Summary)
}

func TestParseStreamLine_UnknownTypeIgnored(t *testing.T) {
	out := parse(t, `{"type":"system","subtype":"init"}`)
	assert.Empty(t, out.Activity)
	assert.False(t, out.IsResult)
}

func TestParseStreamLine_Malformed(t *testing.T) {
	_, err := parseStreamLine([]byte("not json"), time.Now())
	assert.Error(t, err)
}

func TestParseStreamLine_ClipsLongSummaries(t *testing.T) {
	long := strings.Repeat("x", 500)
	out := parse(t, `{"type":"assistant","message":{"content":[{"type":"text","text":"`+long+`"}]}}`)

	require.Len(t, out.Activity, 1)
	assert.LessOrEqual(t, len(out.Activity[0].Summary), maxSummaryLen+len("…"))
}

func TestBuildTaskPrompt_InlinesCompletedDeps(t *testing.T) {
	run := model.NewRun("ship the feature", "/work", 2)
	dep := model.NewTask("Set up schema", "", 1, nil)
	dep.Status = model.TaskCompleted
	dep.Result = "created users table"
	other := model.NewTask("Unrelated", "", 1, nil)
	task := model.NewTask("Build API", "Expose CRUD endpoints", 2, []string{dep.ID})
	run.Tasks = append(run.Tasks, dep, other, task)

	got := buildTaskPrompt(run, task)

	assert.Contains(t, got, "ship the feature")
	assert.Contains(t, got, "Build API")
	assert.Contains(t, got, "Expose CRUD endpoints")
	assert.Contains(t, got, "created users table")
	assert.NotContains(t, got, "Unrelated")
}

func TestBuildTaskPrompt_NoDepsSection(t *testing.T) {
	run := model.NewRun("goal", "/work", 1)
	task := model.NewTask("Solo task", "", 1, nil)
	run.Tasks = append(run.Tasks, task)

	got := buildTaskPrompt(run, task)
	assert.NotContains(t, got, "Already completed")
}
