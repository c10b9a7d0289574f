// Package chart turns an allocation list into pie segments, places their
// labels and tooltips, and rasterises the result through go-chart.
//
// Angles are in radians, measured from 3 o'clock and growing clockwise on
// screen (y axis pointing down). This matches the wedge order go-chart
// draws, so labels computed here land on the wedges it renders.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"graphfi/internal/core"
)

const (
	// LabelThreshold is the share a segment must exceed to get an external label.
	LabelThreshold = 0.03
	// LabelRadiusFactor places labels this far out, relative to the outer radius.
	LabelRadiusFactor = 1.3
)

// Anchor is the horizontal text anchor of a label.
type Anchor string

const (
	AnchorStart Anchor = "start"
	AnchorEnd   Anchor = "end"
)

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

// Segment is one wedge of the pie.
type Segment struct {
	ID         string
	Label      string
	Color      string
	Percentage float64
	Share      float64
	StartAngle float64
	EndAngle   float64
}

// MidAngle is the angular bisector of the wedge.
func (s Segment) MidAngle() float64 {
	return (s.StartAngle + s.EndAngle) / 2
}

// Segments sizes each entry proportionally to its percentage relative to
// the sum of all percentages. A non-positive sum yields zero-width wedges.
func Segments(es core.Entries) []Segment {
	total := es.Total()
	out := make([]Segment, 0, len(es))
	var cum float64
	for _, e := range es {
		pct := core.ClampPercentage(e.Percentage)
		var share float64
		if total > 0 {
			share = pct / total
		}
		start := cum * 2 * math.Pi
		cum += share
		out = append(out, Segment{
			ID:         e.ID,
			Label:      e.Label,
			Color:      e.Color,
			Percentage: pct,
			Share:      share,
			StartAngle: start,
			EndAngle:   cum * 2 * math.Pi,
		})
	}
	return out
}

// pointAt returns the canvas point at angle a and distance r from c.
func pointAt(c Point, r, a float64) Point {
	return Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
}

// Label is a positioned external label.
type Label struct {
	SegmentID string
	Text      string
	Position  Point
	Anchor    Anchor
}

// LabelText is "{label} ({percentage rounded}%)".
func LabelText(s Segment) string {
	return fmt.Sprintf("%s (%s%%)", s.Label, strconv.FormatFloat(math.Round(s.Percentage), 'f', 0, 64))
}

// LabelFor places the external label of s for a pie centred on c with the
// given outer radius. Segments at or below LabelThreshold get none.
func LabelFor(s Segment, c Point, radius float64) (Label, bool) {
	if s.Share <= LabelThreshold {
		return Label{}, false
	}
	p := pointAt(c, radius*LabelRadiusFactor, s.MidAngle())
	anchor := AnchorEnd
	if p.X > c.X {
		anchor = AnchorStart
	}
	return Label{SegmentID: s.ID, Text: LabelText(s), Position: p, Anchor: anchor}, true
}

// Labels returns the labels of every segment that gets one, in order.
func Labels(segs []Segment, c Point, radius float64) []Label {
	var out []Label
	for _, s := range segs {
		if l, ok := LabelFor(s, c, radius); ok {
			out = append(out, l)
		}
	}
	return out
}

// Tooltip is the overlay shown while a segment is hovered or focused.
type Tooltip struct {
	Title string
	Value string
}

// TooltipFor renders the tooltip content of s.
func TooltipFor(s Segment) Tooltip {
	return Tooltip{Title: s.Label, Value: core.FormatPercent(s.Percentage)}
}

// maxArcStep bounds the angle between consecutive polygon vertices.
const maxArcStep = math.Pi / 36

// Polygon approximates the wedge with a closed polygon starting at the
// centre. Zero-width segments return nil.
func (s Segment) Polygon(c Point, radius float64) []Point {
	sweep := s.EndAngle - s.StartAngle
	if sweep <= 0 {
		return nil
	}
	steps := int(math.Ceil(sweep / maxArcStep))
	pts := make([]Point, 0, steps+2)
	if sweep < 2*math.Pi-1e-9 {
		pts = append(pts, c)
	}
	for i := 0; i <= steps; i++ {
		a := s.StartAngle + sweep*float64(i)/float64(steps)
		pts = append(pts, pointAt(c, radius, a))
	}
	return pts
}

// Coords formats a polygon for an HTML image map area.
func Coords(pts []Point) string {
	parts := make([]string, 0, len(pts)*2)
	for _, p := range pts {
		parts = append(parts, strconv.Itoa(int(math.Round(p.X))), strconv.Itoa(int(math.Round(p.Y))))
	}
	return strings.Join(parts, ",")
}

// LegendItem is one row of the legend under the chart.
type LegendItem struct {
	ID    string
	Label string
	Color string
	Value string
}

// Legend lists every entry with its swatch colour and one-decimal percentage.
func Legend(es core.Entries) []LegendItem {
	out := make([]LegendItem, 0, len(es))
	for _, e := range es {
		out = append(out, LegendItem{
			ID:    e.ID,
			Label: e.Label,
			Color: e.Color,
			Value: core.FormatPercent(e.Percentage),
		})
	}
	return out
}
