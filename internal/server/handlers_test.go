package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledgerline-ai/ledgerline/internal/event"
	"github.com/ledgerline-ai/ledgerline/internal/session"
	"github.com/ledgerline-ai/ledgerline/internal/store"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

func setupTestServer(t *testing.T) *Server {
	bus := event.NewBus()
	t.Cleanup(func() { bus.Close() })

	sessions := session.NewService(store.New(t.TempDir()), nil, bus, types.PolicyConfig{})

	return New(DefaultConfig(), sessions, bus)
}

func doRequest(srv *Server, method, path, caller string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Caller-ID", caller)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func openSession(t *testing.T, srv *Server, caller string) *types.Session {
	t.Helper()

	w := doRequest(srv, "POST", "/session", caller, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var sess types.Session
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	return &sess
}

func TestOpenSession(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")

	if sess.ID == "" {
		t.Error("Session ID should not be empty")
	}
	if sess.OwnerID != "user-1" {
		t.Errorf("OwnerID mismatch: got %s", sess.OwnerID)
	}
	if sess.Status != types.StatusActive {
		t.Errorf("Expected active status, got %s", sess.Status)
	}
}

func TestOpenSession_NoCaller(t *testing.T) {
	srv := setupTestServer(t)

	w := doRequest(srv, "POST", "/session", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if resp.Error.Code != ErrCodeUnauthorized {
		t.Errorf("Expected %s, got %s", ErrCodeUnauthorized, resp.Error.Code)
	}
}

func TestOpenSession_AdmissionLimit(t *testing.T) {
	srv := setupTestServer(t)

	for i := 0; i < types.DefaultMaxActiveSessions; i++ {
		openSession(t, srv, "user-1")
	}

	w := doRequest(srv, "POST", "/session", "user-1", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListSessions_Empty(t *testing.T) {
	srv := setupTestServer(t)

	w := doRequest(srv, "GET", "/session", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty JSON array, got %q", body)
	}
}

func TestListSessions_ExcludesArchived(t *testing.T) {
	srv := setupTestServer(t)

	kept := openSession(t, srv, "user-1")
	buried := openSession(t, srv, "user-1")

	w := doRequest(srv, "POST", "/admin/session/"+buried.ID+"/archive", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Archive failed: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(srv, "GET", "/session", "user-1", nil)
	var sessions []*types.Session
	if err := json.NewDecoder(w.Body).Decode(&sessions); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != kept.ID {
		t.Errorf("Expected only the unarchived session, got %d", len(sessions))
	}

	w = doRequest(srv, "GET", "/session?status=archived", "user-1", nil)
	if err := json.NewDecoder(w.Body).Decode(&sessions); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != buried.ID {
		t.Errorf("Expected the archived session, got %d", len(sessions))
	}
}

func TestGetSession_WrongOwner(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")

	w := doRequest(srv, "GET", "/session/"+sess.ID, "user-2", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	srv := setupTestServer(t)

	w := doRequest(srv, "GET", "/session/does-not-exist", "user-1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestTouchSession(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")

	w := doRequest(srv, "POST", "/session/"+sess.ID+"/touch", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCloseSession(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")

	w := doRequest(srv, "POST", "/session/"+sess.ID+"/close", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var closed types.Session
	if err := json.NewDecoder(w.Body).Decode(&closed); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if closed.Status != types.StatusClosed {
		t.Errorf("Expected closed status, got %s", closed.Status)
	}
	if closed.ClosedAt == nil {
		t.Error("ClosedAt should be set")
	}

	// Closing again conflicts.
	w = doRequest(srv, "POST", "/session/"+sess.ID+"/close", "user-1", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestRenameSession(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")

	w := doRequest(srv, "PATCH", "/session/"+sess.ID, "user-1", RenameSessionRequest{Title: "Vendor onboarding"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var renamed types.Session
	if err := json.NewDecoder(w.Body).Decode(&renamed); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if renamed.Title != "Vendor onboarding" {
		t.Errorf("Title mismatch: got %s", renamed.Title)
	}

	w = doRequest(srv, "PATCH", "/session/"+sess.ID, "user-1", RenameSessionRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty title, got %d", w.Code)
	}
}

func TestAppendAndListTurns(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")

	w := doRequest(srv, "POST", "/session/"+sess.ID+"/turn", "user-1", AppendTurnRequest{
		Role:    types.RoleUser,
		Content: "What is our refund policy?",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(srv, "GET", "/session/"+sess.ID+"/turn", "user-1", nil)
	var turns []*types.Turn
	if err := json.NewDecoder(w.Body).Decode(&turns); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "What is our refund policy?" {
		t.Errorf("Unexpected turns: %+v", turns)
	}
}

func TestAppendTurn_InvalidRole(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")

	w := doRequest(srv, "POST", "/session/"+sess.ID+"/turn", "user-1", AppendTurnRequest{
		Role:    "system",
		Content: "nope",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestGetContext(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")
	for i := 0; i < 12; i++ {
		w := doRequest(srv, "POST", "/session/"+sess.ID+"/turn", "user-1", AppendTurnRequest{
			Role:    types.RoleUser,
			Content: fmt.Sprintf("turn %d", i),
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("Append failed: %d", w.Code)
		}
	}

	w := doRequest(srv, "GET", "/session/"+sess.ID+"/context", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var window types.ContextWindow
	if err := json.NewDecoder(w.Body).Decode(&window); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(window.Turns) != types.DefaultContextWindow {
		t.Errorf("Expected %d turns, got %d", types.DefaultContextWindow, len(window.Turns))
	}
	if !window.HasOlderMessages {
		t.Error("HasOlderMessages should be true")
	}

	// Narrowed window
	w = doRequest(srv, "GET", "/session/"+sess.ID+"/context?window=4", "user-1", nil)
	if err := json.NewDecoder(w.Body).Decode(&window); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(window.Turns) != 4 {
		t.Errorf("Expected 4 turns, got %d", len(window.Turns))
	}

	// Full transcript
	w = doRequest(srv, "GET", "/session/"+sess.ID+"/context?window=full", "user-1", nil)
	if err := json.NewDecoder(w.Body).Decode(&window); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(window.Turns) != 12 {
		t.Errorf("Expected all 12 turns, got %d", len(window.Turns))
	}
	if window.HasOlderMessages {
		t.Error("Full transcript should not report older messages")
	}

	w = doRequest(srv, "GET", "/session/"+sess.ID+"/context?window=zero", "user-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad window, got %d", w.Code)
	}
}

func TestRefreshSummary_Degrades(t *testing.T) {
	srv := setupTestServer(t)

	sess := openSession(t, srv, "user-1")
	for i := 0; i < 12; i++ {
		doRequest(srv, "POST", "/session/"+sess.ID+"/turn", "user-1", AppendTurnRequest{
			Role:    types.RoleUser,
			Content: fmt.Sprintf("turn %d", i),
		})
	}

	// No summarizer is wired; the fallback synopsis must still give a 200.
	w := doRequest(srv, "POST", "/session/"+sess.ID+"/summary", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var refreshed types.Session
	if err := json.NewDecoder(w.Body).Decode(&refreshed); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if refreshed.Summary == "" {
		t.Error("Summary should be populated with the fallback synopsis")
	}
}

func TestAdminSweep(t *testing.T) {
	srv := setupTestServer(t)

	openSession(t, srv, "user-1")

	w := doRequest(srv, "POST", "/admin/sweep", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result map[string]int
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if result["swept"] != 0 {
		t.Errorf("Fresh session should not be swept, got %d", result["swept"])
	}
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	w := doRequest(srv, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}
