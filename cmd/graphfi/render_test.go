package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"graphfi/internal/chart"
	"graphfi/internal/log"
	"graphfi/internal/store"
)

func TestLoadStore(t *testing.T) {
	t.Run("default breakdown", func(t *testing.T) {
		st, err := loadStore("", nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := len(st.Entries()); got != 5 {
			t.Errorf("default store has %d entries, want 5", got)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		in := strings.NewReader(`[{"label":"Team","percentage":150},{"label":"Sale","percentage":-3}]`)
		st, err := loadStore("-", in)
		if err != nil {
			t.Fatal(err)
		}
		es := st.Entries()
		if len(es) != 2 || es[0].Percentage != 100 || es[1].Percentage != 0 {
			t.Errorf("entries not clamped: %+v", es)
		}
		if es[0].ID == "" || es[0].ID == es[1].ID {
			t.Errorf("entries need distinct ids: %+v", es)
		}
		if es[1].Color == "" {
			t.Error("colours should be assigned")
		}
	})

	t.Run("empty list", func(t *testing.T) {
		if _, err := loadStore("-", strings.NewReader(`[]`)); err == nil {
			t.Fatal("expected error for empty list")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadStore(filepath.Join(t.TempDir(), "nope.json"), nil); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestRenderFile(t *testing.T) {
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	out := filepath.Join(t.TempDir(), "chart.png")

	st, err := loadStore("-", strings.NewReader(`[{"label":"A","percentage":70},{"label":"B","percentage":30}]`))
	if err != nil {
		t.Fatal(err)
	}
	if err := renderFile(context.Background(), logger, st, out, chart.NewExporter(nil, chart.WithScale(1))); err != nil {
		t.Fatalf("renderFile: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 560 || b.Dy() != 360 {
		t.Errorf("size = %dx%d, want 560x360", b.Dx(), b.Dy())
	}
	if st.Mode() != store.Displaying {
		t.Error("store should be displaying after a successful render")
	}
}

func TestRenderFileRejectsBadTotal(t *testing.T) {
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	out := filepath.Join(t.TempDir(), "chart.png")

	st, _ := loadStore("-", strings.NewReader(`[{"label":"A","percentage":60}]`))
	err := renderFile(context.Background(), logger, st, out, chart.NewExporter(nil))
	if err == nil || !strings.Contains(err.Error(), "60.0%") {
		t.Fatalf("expected total error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no file should be written for rejected allocations")
	}
}
