package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	labelColor   = drawing.ColorFromHex("374151")
	segmentEdge  = drawing.ColorWhite
	defaultColor = drawing.ColorFromHex("8884D8")
)

// Options sizes the chart canvas. Width, Height, Radius and FontSize are
// given at scale 1 and multiplied by Scale when rendering.
type Options struct {
	Width      int
	Height     int
	Radius     int
	FontSize   float64
	Scale      float64
	Background drawing.Color
}

// DefaultOptions is the on-screen chart: an 80px pie on a 560x360 canvas.
func DefaultOptions() Options {
	return Options{
		Width:      560,
		Height:     360,
		Radius:     80,
		FontSize:   11,
		Scale:      1,
		Background: drawing.ColorWhite,
	}
}

// WithScale returns a copy rendering at scale s. Non-positive scales mean 1.
func (o Options) WithScale(s float64) Options {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		s = 1
	}
	o.Scale = s
	return o
}

func (o Options) scaled(v int) int {
	return int(math.Round(float64(v) * o.scale()))
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// PixelSize is the output image size after scaling.
func (o Options) PixelSize() (width, height int) {
	return o.scaled(o.Width), o.scaled(o.Height)
}

// canvasBox is the square the pie is drawn into, centred on the canvas.
func (o Options) canvasBox() gochart.Box {
	w, h := o.PixelSize()
	d := 2 * o.scaled(o.Radius)
	padX := (w - d) / 2
	padY := (h - d) / 2
	return gochart.Box{Top: padY, Left: padX, Right: padX + d, Bottom: padY + d}
}

// Geometry returns the centre and outer radius the pie is drawn with.
func (o Options) Geometry() (Point, float64) {
	b := o.canvasBox()
	cx, cy := b.Center()
	d := b.Width()
	if b.Height() < d {
		d = b.Height()
	}
	return Point{X: float64(cx), Y: float64(cy)}, float64(d >> 1)
}

// Renderer draws segments as a raster image.
type Renderer interface {
	Render(w io.Writer, segs []Segment, opts Options) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, segs []Segment, opts Options) error

func (f RendererFunc) Render(w io.Writer, segs []Segment, opts Options) error {
	return f(w, segs, opts)
}

// PNGRenderer renders through go-chart's PieChart and encodes PNG.
type PNGRenderer struct{}

// Draw renders segs with r into memory. A renderer panic or an empty image
// is returned as an error.
func Draw(r Renderer, segs []Segment, opts Options) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	var buf bytes.Buffer
	if err := r.Render(&buf, segs, opts); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyImage
	}
	return buf.Bytes(), nil
}

func (PNGRenderer) Render(w io.Writer, segs []Segment, opts Options) error {
	pie := pieChart(segs, opts)
	if err := pie.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

func pieChart(segs []Segment, opts Options) gochart.PieChart {
	w, h := opts.PixelSize()
	box := opts.canvasBox()
	values := make([]gochart.Value, 0, len(segs))
	for _, s := range segs {
		values = append(values, gochart.Value{
			Value: s.Percentage,
			Style: gochart.Style{
				FillColor:   parseColor(s.Color),
				StrokeColor: segmentEdge,
				StrokeWidth: 2 * opts.scale(),
			},
		})
	}
	return gochart.PieChart{
		Width:  w,
		Height: h,
		Background: gochart.Style{
			FillColor: opts.Background,
			Padding: gochart.Box{
				Top:    box.Top,
				Left:   box.Left,
				Right:  w - box.Right,
				Bottom: h - box.Bottom,
			},
		},
		Canvas:   gochart.Style{FillColor: opts.Background},
		Values:   values,
		Elements: []gochart.Renderable{labelElement(segs, opts.FontSize*opts.scale())},
	}
}

// labelElement draws the external labels once go-chart has drawn the wedges.
func labelElement(segs []Segment, fontSize float64) gochart.Renderable {
	return func(r gochart.Renderer, box gochart.Box, defaults gochart.Style) {
		cx, cy := box.Center()
		d := box.Width()
		if box.Height() < d {
			d = box.Height()
		}
		labels := Labels(segs, Point{X: float64(cx), Y: float64(cy)}, float64(d>>1))
		if len(labels) == 0 {
			return
		}
		if f := defaults.GetFont(); f != nil {
			r.SetFont(f)
		}
		r.SetFontSize(fontSize)
		r.SetFontColor(labelColor)
		for _, l := range labels {
			tb := r.MeasureText(l.Text)
			x := int(math.Round(l.Position.X))
			if l.Anchor == AnchorEnd {
				x -= tb.Width()
			}
			y := int(math.Round(l.Position.Y)) + tb.Height()/2
			r.Text(l.Text, x, y)
		}
	}
}

func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 3 {
		return defaultColor
	}
	return drawing.ColorFromHex(hex)
}
