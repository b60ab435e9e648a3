package chart

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer, w, h int) {
	t.Helper()
	img, err := png.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, w, img.Bounds().Dx())
	assert.Equal(t, h, img.Bounds().Dy())
}

func TestHistogramPNG(t *testing.T) {
	r := New(640, 360)
	h := &analysis.Histogram{Column: "alpha", Numeric: true, Bins: []analysis.Bin{
		{Label: "0", Count: 3}, {Label: "1", Count: 7}, {Label: "2", Count: 0}, {Label: "3", Count: 2},
	}}
	var buf bytes.Buffer
	require.NoError(t, r.Histogram(&buf, h))
	decode(t, &buf, 640, 360)

	assert.True(t, errors.Is(r.Histogram(&buf, &analysis.Histogram{}), ErrNoData))
}

func TestScatterPNG(t *testing.T) {
	r := New(500, 400)
	var buf bytes.Buffer
	require.NoError(t, r.Scatter(&buf, "", []float64{1, 2, 3, 4}, []float64{1.1, 1.9, 3.2, 3.8}))
	decode(t, &buf, 500, 400)

	buf.Reset()
	require.NoError(t, r.Scatter(&buf, "constant", []float64{2, 2}, []float64{2, 2}))

	assert.True(t, errors.Is(r.Scatter(&buf, "", nil, nil), ErrNoData))
	assert.True(t, errors.Is(r.Scatter(&buf, "", []float64{1}, []float64{1, 2}), ErrNoData))
}

func TestHeatmapPNG(t *testing.T) {
	r := New(400, 300)
	corr := &analysis.CorrMatrix{
		Columns: []string{"alpha", "beta"},
		Values:  [][]float64{{1, -0.4}, {-0.4, math.NaN()}},
	}
	var buf bytes.Buffer
	require.NoError(t, r.Heatmap(&buf, corr))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())

	// top-left corner of the first cell, away from its annotation
	got := color.RGBAModel.Convert(img.At(50, 32)).(color.RGBA)
	assert.Equal(t, coolwarm(1), got)

	assert.True(t, errors.Is(r.Heatmap(&buf, nil), ErrNoData))
}

func TestHeatmapTooManyColumns(t *testing.T) {
	n := 80
	corr := &analysis.CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i := range corr.Values {
		corr.Columns[i] = "c"
		corr.Values[i] = make([]float64, n)
	}
	var buf bytes.Buffer
	assert.Error(t, New(200, 200).Heatmap(&buf, corr))
}

func TestCoolwarm(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 221, G: 221, B: 221, A: 255}, coolwarm(0))
	assert.Equal(t, color.RGBA{R: 59, G: 76, B: 192, A: 255}, coolwarm(-1))
	assert.Equal(t, coolwarm(1), coolwarm(3))
	assert.Equal(t, nanGray, coolwarm(math.NaN()))
}
