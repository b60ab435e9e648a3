// Package chart renders PNG charts for histograms, correlation heatmaps and
// actual-vs-predicted scatter plots.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("chart: no data to plot")

// Renderer draws charts of a fixed size.
type Renderer struct {
	Width  int
	Height int
}

// New returns a renderer; non-positive sizes fall back to 900x500.
func New(width, height int) *Renderer {
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 500
	}
	return &Renderer{Width: width, Height: height}
}

// Histogram draws one bar per bin.
func (r *Renderer) Histogram(w io.Writer, h *analysis.Histogram) error {
	if h == nil || len(h.Bins) == 0 {
		return ErrNoData
	}
	bars := make([]gochart.Value, len(h.Bins))
	maxCount := 1.0
	for i, b := range h.Bins {
		bars[i] = gochart.Value{Value: float64(b.Count), Label: b.Label}
		maxCount = math.Max(maxCount, float64(b.Count))
	}
	spacing := 2
	barWidth := (r.Width-80)/len(bars) - spacing
	if barWidth < 2 {
		barWidth = 2
	}
	bc := gochart.BarChart{
		Title:      fmt.Sprintf("Distribution of %s", h.Column),
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.Style{Hidden: len(bars) > 30},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: math.Ceil(maxCount * 1.1)},
		},
		Bars: bars,
	}
	if err := bc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// pointStyle renders points only (no connecting line).
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

// Scatter plots predicted against actual values with the y = x reference line.
func (r *Renderer) Scatter(w io.Writer, title string, actual, predicted []float64) error {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return ErrNoData
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range actual {
		lo = math.Min(lo, math.Min(actual[i], predicted[i]))
		hi = math.Max(hi, math.Max(actual[i], predicted[i]))
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		return ErrNoData
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	rng := &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	if title == "" {
		title = "Actual vs Predicted"
	}
	ch := gochart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "Actual", Range: rng},
		YAxis:      gochart.YAxis{Name: "Predicted", Range: &gochart.ContinuousRange{Min: rng.Min, Max: rng.Max}},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "y = x",
				XValues: []float64{lo, hi},
				YValues: []float64{lo, hi},
				Style:   gochart.Style{StrokeColor: gochart.ColorAlternateGray, StrokeDashArray: []float64{5, 5}},
			},
			gochart.ContinuousSeries{
				Name:    "predictions",
				XValues: actual,
				YValues: predicted,
				Style:   pointStyle(gochart.ColorBlue),
			},
		},
	}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}
