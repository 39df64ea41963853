// Package web exposes the run manager over HTTP: JSON endpoints for
// run control and an SSE stream bridging the event bus.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/driftworks/crew/internal/config"
	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/journal"
	"github.com/driftworks/crew/internal/manager"
)

// Server is the daemon's HTTP front.
type Server struct {
	addr string

	mgr     *manager.Manager
	bus     *events.Bus
	journal *journal.DB
	cfg     *config.Config

	httpServer *http.Server
	listener   net.Listener
}

// New wires the server. Does not listen; call Start.
func New(cfg *config.Config, mgr *manager.Manager, bus *events.Bus, jnl *journal.DB) *Server {
	s := &Server{
		addr:    cfg.Listen,
		mgr:     mgr,
		bus:     bus,
		journal: jnl,
		cfg:     cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/runs", s.handleCreateRun)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /api/runs/{id}/start", s.handleTransition("start", s.mgr.Start))
	mux.HandleFunc("POST /api/runs/{id}/stop", s.handleTransition("stop", s.mgr.Stop))
	mux.HandleFunc("POST /api/runs/{id}/pause", s.handleTransition("pause", s.mgr.Pause))
	mux.HandleFunc("POST /api/runs/{id}/resume", s.handleTransition("resume", s.mgr.Resume))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/journal", s.handleJournal)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	s.httpServer = &http.Server{Addr: cfg.Listen, Handler: mux}
	return s
}

// Start begins listening. Non-blocking; serve errors surface on the
// returned channel.
func (s *Server) Start() (<-chan error, error) {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener
	s.addr = listener.Addr().String()

	errc := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()
	return errc, nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound listen address. Useful with ephemeral ports.
func (s *Server) Addr() string {
	return s.addr
}
