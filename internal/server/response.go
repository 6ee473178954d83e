package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ledgerline-ai/ledgerline/internal/session"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeAdmissionLimit    = "ADMISSION_LIMIT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError maps session service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Caller identity required")
	case errors.Is(err, session.ErrForbidden):
		writeError(w, http.StatusForbidden, ErrCodePermissionDenied, "Session belongs to another owner")
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
	case errors.Is(err, session.ErrAdmissionLimit):
		writeError(w, http.StatusTooManyRequests, ErrCodeAdmissionLimit, "Active session limit reached")
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusConflict, ErrCodeInvalidTransition, "Operation not valid in the session's current state")
	case errors.Is(err, session.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
