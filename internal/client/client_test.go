package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworks/crew/internal/model"
	"github.com/driftworks/crew/internal/web"
)

func TestNew_AddrNormalization(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:4177", New("127.0.0.1:4177").base)
	assert.Equal(t, "http://example.com:80", New("http://example.com:80").base)
	assert.Equal(t, "https://example.com", New("https://example.com").base)
	assert.NotEmpty(t, New("").base)
}

func TestCreateRun(t *testing.T) {
	var got web.CreateRunRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/runs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Run{ID: "r-1", Goal: got.Goal, Status: model.RunIdle})
	}))
	defer srv.Close()

	run, err := New(srv.URL).CreateRun("fix the bug", "/tmp/proj", 2, true)
	require.NoError(t, err)
	assert.Equal(t, "r-1", run.ID)
	assert.Equal(t, "fix the bug", got.Goal)
	assert.Equal(t, "/tmp/proj", got.TargetDir)
	assert.Equal(t, 2, got.MaxWorkers)
	assert.True(t, got.Start)
}

func TestGetRun_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "run missing not found"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetRun("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run missing not found")
}

func TestListRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/runs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]model.Run{{ID: "r-2"}, {ID: "r-1"}})
	}))
	defer srv.Close()

	runs, err := New(srv.URL).ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r-2", runs[0].ID)
}

func TestTransitions_HitTheRightEndpoints(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.Run{ID: "r-1", Status: model.RunPaused})
	}))
	defer srv.Close()

	c := New(srv.URL)
	for _, call := range []func(string) (*model.Run, error){c.StartRun, c.StopRun, c.PauseRun, c.ResumeRun} {
		_, err := call("r-1")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"POST /api/runs/r-1/start",
		"POST /api/runs/r-1/stop",
		"POST /api/runs/r-1/pause",
		"POST /api/runs/r-1/resume",
	}, paths)
}

func TestTransition_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "run r-1 cannot pause while idle"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).PauseRun("r-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot pause")
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","providers":[{"name":"planner","command":"claude","available":true}]}`))
	}))
	defer srv.Close()

	providers, err := New(srv.URL).Health()
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "planner", providers[0].Name)
	assert.True(t, providers[0].Available)
}

func TestJournal_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/journal", r.URL.Path)
		assert.Equal(t, "r-1", r.URL.Query().Get("run"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	entries, err := New(srv.URL).Journal("r-1", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
