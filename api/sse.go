package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// keepAliveInterval is how often an idle event stream sends a comment line.
const keepAliveInterval = 15 * time.Second

// handleEvents streams the session's public snapshots as Server-Sent Events.
// The current state is sent first; the subscription is opened before it is
// read so no change is lost, and snapshots not newer than the last one sent
// are skipped.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, err := s.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	current, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n\n"))
		flusher.Flush()
		return nil
	}

	if err := writeEvent(current); err != nil {
		return
	}
	lastRevision := current.Revision

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case state, ok := <-events:
			if !ok {
				return
			}
			if state.Revision <= lastRevision {
				continue
			}
			if err := writeEvent(state); err != nil {
				return
			}
			lastRevision = state.Revision

		case <-keepAlive.C:
			w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
