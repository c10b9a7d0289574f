package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTextAndJSON(t *testing.T) {
	var text bytes.Buffer
	New(Config{Output: &text, Component: ComponentChart}).Info("rendered", FieldEntryCount, 3)
	if !strings.Contains(text.String(), "component=chart") || !strings.Contains(text.String(), "entry_count=3") {
		t.Fatalf("unexpected text output: %s", text.String())
	}

	var js bytes.Buffer
	New(Config{Output: &js, Format: "json"}).Info("hello")
	if !strings.Contains(js.String(), `"component":"app"`) {
		t.Fatalf("unexpected json output: %s", js.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Level: slog.LevelWarn})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level filtering failed: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Component: ComponentHTTP}).With(FieldRequestID, "req_1")

	got := FromContext(NewContext(context.Background(), base))
	got.Info("inside")

	if got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated")
	}
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing: %s", buf.String())
	}

	if FromContext(context.Background()) == nil {
		t.Fatalf("FromContext must never return nil")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentExport).
		WithOperation(OpExport).
		WithEntries(2, 100).
		WithHTTPResponse(500, 12)
	if f[FieldSuccess] != false || f[FieldEntryCount] != 2 {
		t.Fatalf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Fatalf("slice length mismatch")
	}
}
