package chart

import (
	"bytes"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsGeometry(t *testing.T) {
	opts := DefaultOptions()
	c, r := opts.Geometry()
	assert.Equal(t, Point{X: 280, Y: 180}, c)
	assert.Equal(t, 80.0, r)

	w, h := opts.WithScale(2).PixelSize()
	assert.Equal(t, 1120, w)
	assert.Equal(t, 720, h)
	c, r = opts.WithScale(2).Geometry()
	assert.Equal(t, Point{X: 560, Y: 360}, c)
	assert.Equal(t, 160.0, r)

	assert.Equal(t, 1.0, opts.WithScale(-1).Scale)
}

func TestPNGRendererOutput(t *testing.T) {
	opts := DefaultOptions().WithScale(2)
	var buf bytes.Buffer
	require.NoError(t, PNGRenderer{}.Render(&buf, Segments(list("A", 50.0, "B", 30.0, "C", 20.0)), opts))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 1120, b.Dx())
	assert.Equal(t, 720, b.Dy())

	r, g, bl, a := img.At(1, 1).RGBA()
	assert.Equal(t, color.RGBA64{0xffff, 0xffff, 0xffff, 0xffff}, color.RGBA64{uint16(r), uint16(g), uint16(bl), uint16(a)})

	// Each wedge is drawn where the geometry (and so the labels and image
	// map) expects it: the bisector at half radius carries the segment colour.
	c, radius := opts.Geometry()
	for _, seg := range Segments(list("A", 50.0, "B", 30.0, "C", 20.0)) {
		p := pointAt(c, radius/2, seg.MidAngle())
		got := color.RGBAModel.Convert(img.At(int(p.X), int(p.Y))).(color.RGBA)
		want := parseColor(seg.Color)
		assert.InDelta(t, want.R, got.R, 2, "segment %s red", seg.Label)
		assert.InDelta(t, want.G, got.G, 2, "segment %s green", seg.Label)
		assert.InDelta(t, want.B, got.B, 2, "segment %s blue", seg.Label)
	}
}

func TestPNGRendererRejectsEmptyPie(t *testing.T) {
	var buf bytes.Buffer
	err := PNGRenderer{}.Render(&buf, Segments(list("A", 0.0)), DefaultOptions())
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, defaultColor, parseColor("not-a-color"))
	assert.Equal(t, parseColor("8B5CF6"), parseColor("#8B5CF6"))
}

func TestDrawGuardsRenderer(t *testing.T) {
	segs := Segments(list("A", 100.0))

	_, err := Draw(RendererFunc(func(io.Writer, []Segment, Options) error { panic("boom") }), segs, DefaultOptions())
	assert.ErrorContains(t, err, "panic: boom")

	_, err = Draw(RendererFunc(func(io.Writer, []Segment, Options) error { return nil }), segs, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyImage)

	data, err := Draw(PNGRenderer{}, segs, DefaultOptions().WithScale(0.25))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}
