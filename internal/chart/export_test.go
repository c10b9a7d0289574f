package chart

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphfi/internal/notify"
)

func TestExportSuccess(t *testing.T) {
	var gotOpts Options
	r := RendererFunc(func(w io.Writer, segs []Segment, opts Options) error {
		gotOpts = opts
		_, err := w.Write([]byte("png-bytes"))
		return err
	})
	var rec notify.Recorder

	exp, err := NewExporter(r).Export(context.Background(), "s1", list("A", 100.0), &rec)
	require.NoError(t, err)
	assert.Equal(t, "graphfi-tokenomics.png", exp.Filename)
	assert.Equal(t, "image/png", exp.ContentType)
	assert.Equal(t, []byte("png-bytes"), exp.Data)
	assert.Equal(t, 2.0, gotOpts.Scale)

	assert.Equal(t, []notify.Event{
		{Kind: notify.Success, Message: "Chart downloaded successfully!"},
	}, rec.Events())
}

func TestExportRendererError(t *testing.T) {
	boom := errors.New("boom")
	r := RendererFunc(func(io.Writer, []Segment, Options) error { return boom })
	var rec notify.Recorder

	_, err := NewExporter(r).Export(context.Background(), "s1", list("A", 100.0), &rec)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []notify.Event{
		{Kind: notify.Error, Message: "Failed to download chart. Please try again."},
	}, rec.Events())
}

func TestExportRecoversPanics(t *testing.T) {
	r := RendererFunc(func(io.Writer, []Segment, Options) error { panic("encoder exploded") })
	var rec notify.Recorder

	var err error
	assert.NotPanics(t, func() {
		_, err = NewExporter(r).Export(context.Background(), "s1", list("A", 100.0), &rec)
	})
	assert.ErrorContains(t, err, "encoder exploded")
	assert.Equal(t, notify.Error, rec.Events()[len(rec.Events())-1].Kind)
}

func TestExportEmptyImage(t *testing.T) {
	r := RendererFunc(func(io.Writer, []Segment, Options) error { return nil })
	_, err := NewExporter(r).Export(context.Background(), "s1", list("A", 100.0), notify.Discard)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestExportTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := RendererFunc(func(w io.Writer, _ []Segment, _ Options) error {
		<-release
		_, err := w.Write([]byte("late"))
		return err
	})
	var rec notify.Recorder

	_, err := NewExporter(r, WithTimeout(10*time.Millisecond)).Export(context.Background(), "s1", list("A", 100.0), &rec)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, notify.Error, rec.Events()[0].Kind)
}

func TestConcurrentExportsShareOneCapture(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	r := RendererFunc(func(w io.Writer, _ []Segment, _ Options) error {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		_, err := w.Write([]byte("shared"))
		return err
	})
	e := NewExporter(r)

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		exp, err := e.Export(context.Background(), "same", list("A", 100.0), notify.Discard)
		assert.NoError(t, err)
		results[0] = exp.Data
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		exp, err := e.Export(context.Background(), "same", list("A", 100.0), notify.Discard)
		assert.NoError(t, err)
		results[1] = exp.Data
	}()
	// Give the second caller time to join the in-flight capture.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []byte("shared"), results[0])
	assert.Equal(t, []byte("shared"), results[1])
}

func TestExportWithRealRenderer(t *testing.T) {
	exp, err := NewExporter(nil).Export(context.Background(), "s1", list("A", 60.0, "B", 40.0), notify.Discard)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), exp.Data[:4])
}
