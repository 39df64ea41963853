package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/model"
	"github.com/driftworks/crew/internal/planner"
	"github.com/driftworks/crew/internal/scheduler"
	"github.com/driftworks/crew/internal/store"
	"github.com/driftworks/crew/internal/testutil"
)

const eventually = 5 * time.Second

// onePlanner plans a single task judged goal-complete.
func onePlanner() *testutil.ScriptedPlanner {
	return testutil.NewPlanner("A", planner.TaskSpec{Title: "T1"}).
		Verdict("T1", planner.Verdict{Assessment: "done", GoalComplete: true})
}

func newManager(t *testing.T, dir string, launcher *testutil.StubLauncher) *Manager {
	t.Helper()
	st, err := store.Open(dir)
	require.NoError(t, err)
	bus := events.NewBus()
	sched := scheduler.New(onePlanner(), launcher, st, bus)
	m, err := New(sched, launcher, st, bus)
	require.NoError(t, err)
	return m
}

func waitStatus(t *testing.T, m *Manager, runID string, want model.RunStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		r, err := m.Get(runID)
		return err == nil && r.Status == want
	}, eventually, time.Millisecond, "waiting for status %s", want)
}

func TestCreate_Validation(t *testing.T) {
	m := newManager(t, t.TempDir(), testutil.NewLauncher())

	_, err := m.Create("", t.TempDir(), 0)
	assert.Error(t, err)

	_, err = m.Create("goal", "/no/such/dir", 0)
	assert.Error(t, err)

	run, err := m.Create("goal", t.TempDir(), 0)
	require.NoError(t, err)
	assert.Equal(t, model.RunIdle, run.Status)
	assert.Equal(t, model.DefaultMaxWorkers, run.MaxWorkers)

	run, err = m.Create("goal", t.TempDir(), 99)
	require.NoError(t, err)
	assert.Equal(t, model.MaxWorkersLimit, run.MaxWorkers)
}

func TestStart_RunsToCompletion(t *testing.T) {
	m := newManager(t, t.TempDir(), testutil.NewLauncher())
	run, err := m.Create("write hello", t.TempDir(), 1)
	require.NoError(t, err)

	require.NoError(t, m.Start(run.ID))
	waitStatus(t, m, run.ID, model.RunCompleted)

	got, err := m.Get(run.ID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, model.TaskCompleted, got.Tasks[0].Status)
	require.Len(t, got.Judgements, 1)
}

func TestStart_Preconditions(t *testing.T) {
	m := newManager(t, t.TempDir(), testutil.NewLauncher())

	err := m.Start("nope")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	run, err := m.Create("goal", t.TempDir(), 1)
	require.NoError(t, err)
	require.NoError(t, m.Start(run.ID))
	waitStatus(t, m, run.ID, model.RunCompleted)

	err = m.Start(run.ID)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "start", te.Op)
}

func TestStop_IsIdempotent(t *testing.T) {
	m := newManager(t, t.TempDir(), testutil.NewLauncher())
	run, err := m.Create("goal", t.TempDir(), 1)
	require.NoError(t, err)

	require.NoError(t, m.Stop(run.ID))
	got, _ := m.Get(run.ID)
	assert.Equal(t, model.RunStopped, got.Status)
	assert.NotNil(t, got.CompletedAt)

	require.NoError(t, m.Stop(run.ID))

	var te *TransitionError
	assert.ErrorAs(t, m.Start(run.ID), &te)
}

func TestStop_AbortsRunningWorkers(t *testing.T) {
	launcher := testutil.NewLauncher()
	launcher.Gate("T1")
	m := newManager(t, t.TempDir(), launcher)

	run, err := m.Create("goal", t.TempDir(), 1)
	require.NoError(t, err)
	require.NoError(t, m.Start(run.ID))

	require.Eventually(t, func() bool {
		r, _ := m.Get(run.ID)
		return r.RunningWorkers() == 1
	}, eventually, time.Millisecond)

	require.NoError(t, m.Stop(run.ID))

	got, _ := m.Get(run.ID)
	assert.Equal(t, model.RunStopped, got.Status)
	require.Len(t, got.Workers, 1)
	assert.Equal(t, model.WorkerFailed, got.Workers[0].Status)
	assert.Equal(t, model.TaskPending, got.Tasks[0].Status)
}

func TestPause_Preconditions(t *testing.T) {
	m := newManager(t, t.TempDir(), testutil.NewLauncher())
	run, err := m.Create("goal", t.TempDir(), 1)
	require.NoError(t, err)

	var te *TransitionError
	assert.ErrorAs(t, m.Pause(run.ID), &te)
}

func TestPauseResume_RoundTrip(t *testing.T) {
	launcher := testutil.NewLauncher()
	gate := launcher.Gate("T1")
	m := newManager(t, t.TempDir(), launcher)

	run, err := m.Create("goal", t.TempDir(), 1)
	require.NoError(t, err)
	require.NoError(t, m.Start(run.ID))

	require.Eventually(t, func() bool {
		r, _ := m.Get(run.ID)
		return r.RunningWorkers() == 1
	}, eventually, time.Millisecond)

	require.NoError(t, m.Pause(run.ID))
	got, _ := m.Get(run.ID)
	assert.Equal(t, model.RunPaused, got.Status)
	assert.Equal(t, model.TaskPending, got.Tasks[0].Status)

	launcher.Ungate("T1")
	close(gate)

	require.NoError(t, m.Resume(run.ID))
	waitStatus(t, m, run.ID, model.RunCompleted)
}

func TestResume_ReopensStoppedRun(t *testing.T) {
	m := newManager(t, t.TempDir(), testutil.NewLauncher())
	run, err := m.Create("goal", t.TempDir(), 1)
	require.NoError(t, err)
	require.NoError(t, m.Stop(run.ID))

	require.NoError(t, m.Resume(run.ID))
	waitStatus(t, m, run.ID, model.RunCompleted)

	got, _ := m.Get(run.ID)
	assert.NotNil(t, got.CompletedAt)
}

func TestList_NewestFirst(t *testing.T) {
	m := newManager(t, t.TempDir(), testutil.NewLauncher())
	dir := t.TempDir()

	first, err := m.Create("first", dir, 1)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := m.Create("second", dir, 1)
	require.NoError(t, err)

	got := m.List()
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestShutdown_ParksActiveRunsAsPaused(t *testing.T) {
	launcher := testutil.NewLauncher()
	launcher.Gate("T1")
	dir := t.TempDir()
	m := newManager(t, dir, launcher)

	run, err := m.Create("goal", t.TempDir(), 1)
	require.NoError(t, err)
	require.NoError(t, m.Start(run.ID))

	require.Eventually(t, func() bool {
		r, _ := m.Get(run.ID)
		return r.RunningWorkers() == 1
	}, eventually, time.Millisecond)

	m.Shutdown(context.Background())

	got, _ := m.Get(run.ID)
	assert.Equal(t, model.RunPaused, got.Status)
	assert.Equal(t, model.WorkerFailed, got.Workers[0].Status)

	// A fresh manager over the same directory sees the parked run.
	m2 := newManager(t, dir, testutil.NewLauncher())
	loaded, err := m2.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunPaused, loaded.Status)
}
