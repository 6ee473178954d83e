package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// archiveSession handles POST /admin/session/{sessionID}/archive.
// Archival is an out-of-band administrative action with no ownership check.
func (s *Server) archiveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.sessions.Archive(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// runSweep handles POST /admin/sweep. It runs one idle sweep pass on demand,
// in addition to the background runner.
func (s *Server) runSweep(w http.ResponseWriter, r *http.Request) {
	swept, err := s.sessions.Sweep(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"swept": swept})
}
