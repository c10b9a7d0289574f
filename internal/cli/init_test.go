package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"graphfi/internal/config"
	"graphfi/internal/log"
)

type fakeServer struct {
	stopped  chan struct{}
	listen   error
	shutdown error
	calls    int
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listen != nil {
		return f.listen
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.calls++
	close(f.stopped)
	return f.shutdown
}

func TestServeStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	srv := newFakeServer()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, logger, srv, time.Second) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if srv.calls != 1 {
		t.Errorf("Shutdown called %d times, want 1", srv.calls)
	}
	if !strings.Contains(buf.String(), "Server stopped gracefully") {
		t.Errorf("missing shutdown log:\n%s", buf.String())
	}
}

func TestServeListenError(t *testing.T) {
	srv := newFakeServer()
	srv.listen = errors.New("address in use")

	err := Serve(context.Background(), log.Nop(), srv, time.Second)
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected listen error, got %v", err)
	}
	if srv.calls != 0 {
		t.Error("Shutdown should not run when listening failed")
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := SetupLogger(&config.Config{LogLevel: "loud"}, &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}
