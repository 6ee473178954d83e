package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// AppendTurnRequest represents the request body for appending a turn.
type AppendTurnRequest struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
}

// listTurns handles GET /session/{sessionID}/turn
func (s *Server) listTurns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := s.sessions.Turns(r.Context(), sessionID, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if turns == nil {
		turns = []*types.Turn{}
	}

	writeJSON(w, http.StatusOK, turns)
}

// appendTurn handles POST /session/{sessionID}/turn
func (s *Server) appendTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req AppendTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	turn, err := s.sessions.AppendTurn(r.Context(), sessionID, callerID(r.Context()), req.Role, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, turn)
}

// getContext handles GET /session/{sessionID}/context. The window query
// parameter selects the shape: absent or a positive integer applies the
// sliding window (the integer narrows it below the policy default), "full"
// returns the entire transcript plus the stored summary.
func (s *Server) getContext(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	useWindow := true
	size := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		if raw == "full" {
			useWindow = false
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "window must be a positive integer or \"full\"")
				return
			}
			size = n
		}
	}

	window, err := s.sessions.Context(r.Context(), sessionID, callerID(r.Context()), useWindow, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if window.Turns == nil {
		window.Turns = []*types.Turn{}
	}

	writeJSON(w, http.StatusOK, window)
}

// refreshSummary handles POST /session/{sessionID}/summary
func (s *Server) refreshSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.sessions.RefreshSummary(r.Context(), sessionID, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}
