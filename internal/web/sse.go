package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// handleEvents streams bus events as SSE. The subscription includes
// the bus's catch-up prelude, so a fresh client sees recent history.
// The optional ?run= parameter filters to one run's events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	runFilter := r.URL.Query().Get("run")

	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if runFilter != "" && e.RunID() != runFilter {
				continue
			}
			data, err := json.Marshal(e)
			if err != nil {
				log.Printf("ERROR: encoding event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
