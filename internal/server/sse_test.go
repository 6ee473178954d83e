package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ledgerline-ai/ledgerline/internal/event"
)

// mockResponseWriter adds http.Flusher to the recorder.
type mockResponseWriter struct {
	*httptest.ResponseRecorder
	flushed int
}

func (m *mockResponseWriter) Flush() {
	m.flushed++
}

func newMockResponseWriter() *mockResponseWriter {
	return &mockResponseWriter{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

type noFlushWriter struct{}

func (n *noFlushWriter) Header() http.Header       { return http.Header{} }
func (n *noFlushWriter) Write([]byte) (int, error) { return 0, nil }
func (n *noFlushWriter) WriteHeader(int)           {}

func TestNewSSEWriter(t *testing.T) {
	w := newMockResponseWriter()
	sse, err := newSSEWriter(w)
	if err != nil {
		t.Fatalf("newSSEWriter failed: %v", err)
	}
	if sse == nil {
		t.Fatal("SSE writer should not be nil")
	}
}

func TestNewSSEWriter_NoFlusher(t *testing.T) {
	_, err := newSSEWriter(&noFlushWriter{})
	if err == nil {
		t.Error("Expected error for writer without Flusher")
	}
}

func TestSSEWriter_WriteEvent(t *testing.T) {
	w := newMockResponseWriter()
	sse, err := newSSEWriter(w)
	if err != nil {
		t.Fatalf("newSSEWriter failed: %v", err)
	}

	payload := StreamEvent{
		Type:       event.SessionOpened,
		Properties: map[string]string{"sessionID": "ses_1"},
	}
	if err := sse.writeEvent("message", payload); err != nil {
		t.Fatalf("writeEvent failed: %v", err)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "event: message\n") {
		t.Errorf("Missing event line: %q", body)
	}
	if !strings.Contains(body, `"type":"session.opened"`) {
		t.Errorf("Missing payload: %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Errorf("Missing terminating blank line: %q", body)
	}
}

func TestEventBelongsToSession(t *testing.T) {
	cases := []struct {
		event event.Event
		want  bool
	}{
		{event.Event{Type: event.SessionIdle, Data: event.SessionIdleData{SessionID: "ses_1"}}, true},
		{event.Event{Type: event.SessionIdle, Data: event.SessionIdleData{SessionID: "ses_2"}}, false},
		{event.Event{Type: event.SummaryDegraded, Data: event.SummaryDegradedData{SessionID: "ses_1"}}, true},
		{event.Event{Type: event.SessionOpened, Data: "not a payload"}, false},
	}

	for _, tc := range cases {
		if got := eventBelongsToSession(tc.event, "ses_1"); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.event.Type, tc.want, got)
		}
	}
}

func TestSSEWriter_Heartbeat(t *testing.T) {
	w := newMockResponseWriter()
	sse, err := newSSEWriter(w)
	if err != nil {
		t.Fatalf("newSSEWriter failed: %v", err)
	}

	sse.writeHeartbeat()

	if got := w.Body.String(); got != ": heartbeat\n\n" {
		t.Errorf("Unexpected heartbeat: %q", got)
	}
	if w.flushed == 0 {
		t.Error("Heartbeat should flush")
	}
}
