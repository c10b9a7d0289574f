package chart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/sync/singleflight"

	"graphfi/internal/core"
	"graphfi/internal/log"
	"graphfi/internal/notify"
)

const (
	// Filename is the name offered to the browser for downloads.
	Filename = "graphfi-tokenomics.png"
	// ContentType of every export.
	ContentType = "image/png"
	// DefaultExportScale renders exports at twice the on-screen size.
	DefaultExportScale = 2.0

	// PreparingNotice is shown while a capture is running. Export does not
	// send it; callers show it before they start waiting.
	PreparingNotice = "Preparing your chart for download..."

	msgDownloaded = "Chart downloaded successfully!"
	msgFailed     = "Failed to download chart. Please try again."
)

// ErrEmptyImage is returned when the renderer produced no bytes.
var ErrEmptyImage = errors.New("renderer produced an empty image")

// Export is an encoded chart ready to be downloaded.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter captures charts as PNG. Concurrent exports that share a key are
// served by a single capture.
type Exporter struct {
	renderer Renderer
	opts     Options
	timeout  time.Duration
	logger   *log.Logger
	group    singleflight.Group
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithScale sets the export scale factor.
func WithScale(s float64) ExporterOption {
	return func(e *Exporter) { e.opts = e.opts.WithScale(s) }
}

// WithTimeout bounds how long a caller waits for a capture.
func WithTimeout(d time.Duration) ExporterOption {
	return func(e *Exporter) { e.timeout = d }
}

// WithLogger sets the logger used for capture failures.
func WithLogger(l *log.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExporter returns an exporter drawing with r on an opaque white background.
func NewExporter(r Renderer, opts ...ExporterOption) *Exporter {
	if r == nil {
		r = PNGRenderer{}
	}
	base := DefaultOptions().WithScale(DefaultExportScale)
	base.Background = drawing.ColorWhite
	e := &Exporter{
		renderer: r,
		opts:     base,
		logger:   log.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export captures entries and reports the outcome through n as exactly one
// success or error notice. Callers sharing a key share one capture, so the
// key must change whenever entries do. Errors never escape as panics.
func (e *Exporter) Export(ctx context.Context, key string, entries core.Entries, n notify.Notifier) (Export, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	snapshot := entries.Clone()
	ch := e.group.DoChan(key, func() (any, error) {
		return e.capture(snapshot)
	})

	var (
		data   []byte
		err    error
		shared bool
	)
	select {
	case res := <-ch:
		err, shared = res.Err, res.Shared
		if err == nil {
			data, _ = res.Val.([]byte)
		}
	case <-ctx.Done():
		err = fmt.Errorf("wait for capture: %w", ctx.Err())
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "Chart export failed",
			log.FieldError, err,
			log.FieldExportKey, key,
			log.FieldEntryCount, len(entries),
			log.FieldOperation, log.OpExport)
		notify.Errorf(n, msgFailed)
		return Export{}, err
	}

	e.logger.InfoContext(ctx, "Chart exported",
		log.FieldExportKey, key,
		log.FieldExportBytes, len(data),
		log.FieldExportScale, e.opts.Scale,
		log.FieldShared, shared)
	notify.Successf(n, msgDownloaded)
	return Export{Filename: Filename, ContentType: ContentType, Data: data}, nil
}

func (e *Exporter) capture(entries core.Entries) ([]byte, error) {
	data, err := Draw(e.renderer, Segments(entries), e.opts)
	if err != nil {
		return nil, fmt.Errorf("capture chart: %w", err)
	}
	return data, nil
}
