package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/driftworks/crew/internal/manager"
)

// CreateRunRequest is the POST /api/runs body.
type CreateRunRequest struct {
	Goal       string `json:"goal"`
	TargetDir  string `json:"targetDir"`
	MaxWorkers int    `json:"maxWorkers"`

	// Start launches the run immediately after creation.
	Start bool `json:"start"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: encoding response: %v", err)
	}
}

// writeError maps manager errors to HTTP statuses: unknown run is
// 404, an illegal transition is 409, anything else 400.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	var nf *manager.NotFoundError
	var te *manager.TransitionError
	switch {
	case errors.As(err, &nf):
		status = http.StatusNotFound
	case errors.As(err, &te):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	run, err := s.mgr.Create(req.Goal, req.TargetDir, req.MaxWorkers)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Start {
		if err := s.mgr.Start(run.ID); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mgr.List())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.mgr.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleTransition adapts a manager state-change method to a handler.
func (s *Server) handleTransition(op string, fn func(string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := fn(id); err != nil {
			writeError(w, err)
			return
		}
		run, err := s.mgr.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("INFO: %s run %s", op, id)
		writeJSON(w, http.StatusOK, run)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": s.cfg.Health(),
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "journal not enabled"})
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := s.journal.Tail(r.URL.Query().Get("run"), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
