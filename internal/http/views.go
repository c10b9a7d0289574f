package http

import (
	"net/url"

	"graphfi/internal/chart"
	"graphfi/internal/core"
	"graphfi/internal/store"
)

type entryRow struct {
	ID         string
	Label      string
	Percentage string
	Color      string
	Position   int
	CanRemove  bool
	OOB        bool
}

type totalView struct {
	Text  string
	Valid bool
}

type chartArea struct {
	ID     string
	Coords string
	Title  string
	Value  string
}

type chartView struct {
	ImageURL string
	// PendingNotice is shown by the page as soon as an export request starts.
	PendingNotice string
	Width    int
	Height   int
	Alt      string
	Areas    []chartArea
	Legend   []chart.LegendItem
}

type formView struct {
	Rows  []entryRow
	Total totalView
}

type workspaceView struct {
	Form      formView
	Mode      string
	ShowChart bool
	Chart     *chartView
}

func newTotalView(total float64) totalView {
	return totalView{
		Text:  "Total: " + core.FormatPercent(total),
		Valid: core.IsValidTotal(total),
	}
}

func newFormView(snap store.Snapshot) formView {
	rows := make([]entryRow, 0, len(snap.Entries))
	for i, e := range snap.Entries {
		rows = append(rows, entryRow{
			ID:         e.ID,
			Label:      e.Label,
			Percentage: formatInputValue(e.Percentage),
			Color:      e.Color,
			Position:   i + 1,
			CanRemove:  len(snap.Entries) > 1,
		})
	}
	return formView{Rows: rows, Total: newTotalView(snap.Total)}
}

func newChartView(es core.Entries, opts chart.Options) *chartView {
	segs := chart.Segments(es)
	c, radius := opts.Geometry()

	areas := make([]chartArea, 0, len(segs))
	for _, s := range segs {
		pts := s.Polygon(c, radius)
		if len(pts) == 0 {
			continue
		}
		tip := chart.TooltipFor(s)
		areas = append(areas, chartArea{
			ID:     s.ID,
			Coords: chart.Coords(pts),
			Title:  tip.Title,
			Value:  tip.Value,
		})
	}

	w, h := opts.PixelSize()
	return &chartView{
		ImageURL:      "/chart.png?" + url.Values{"v": {revision(es)}}.Encode(),
		PendingNotice: chart.PreparingNotice,
		Width:         w,
		Height:        h,
		Alt:           "Tokenomics allocation pie chart",
		Areas:         areas,
		Legend:        chart.Legend(es),
	}
}

func newWorkspaceView(snap store.Snapshot, opts chart.Options) workspaceView {
	v := workspaceView{
		Form:      newFormView(snap),
		Mode:      snap.Mode.String(),
		ShowChart: snap.ShowChart(),
	}
	if v.ShowChart {
		v.Chart = newChartView(snap.Entries, opts)
	}
	return v
}
