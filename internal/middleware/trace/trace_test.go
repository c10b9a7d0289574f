package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"graphfi/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "text", Output: buf})
	return NewMiddleware(logger, func(*http.Request) string { return "203.0.113.7" })
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	seen := rec.Header().Get(HeaderRequestID)
	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request ID = %q, want req_ prefix", seen)
	}
	if !strings.Contains(buf.String(), "inside handler") || !strings.Contains(buf.String(), "request_id="+seen) {
		t.Errorf("handler log line missing request ID:\n%s", buf.String())
	}
}

func TestMiddleware_HonoursIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"well formed", "abcDEF-123_456", true},
		{"too short", "abc", false},
		{"header injection", "abcdefgh\r\nX-Evil: 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.incoming)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if (got == tt.incoming) != tt.keep {
				t.Errorf("response request ID = %q, keep incoming = %v", got, tt.keep)
			}
		})
	}
}

func TestMiddleware_LevelsAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	status := http.StatusOK
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("body"))
	}))

	for _, s := range []int{http.StatusOK, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		status = s
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/generate", nil))
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=422") {
		t.Errorf("4xx should log at WARN:\n%s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "status_code=500") {
		t.Errorf("5xx should log at ERROR:\n%s", out)
	}
	if !strings.Contains(out, "client_ip=203.0.113.7") {
		t.Errorf("client IP missing:\n%s", out)
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", metrics.TotalRequests)
	}
	if metrics.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", metrics.ServerErrors)
	}
}
