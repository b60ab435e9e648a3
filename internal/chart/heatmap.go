package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	coolLow  = [3]float64{59, 76, 192}
	coolMid  = [3]float64{221, 221, 221}
	coolHigh = [3]float64{180, 4, 38}
	nanGray  = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

// coolwarm maps r in [-1, 1] onto a diverging blue-white-red scale.
func coolwarm(r float64) color.RGBA {
	if math.IsNaN(r) {
		return nanGray
	}
	r = math.Max(-1, math.Min(1, r))
	from, to, t := coolMid, coolHigh, r
	if r < 0 {
		from, to, t = coolMid, coolLow, -r
	}
	mix := func(i int) uint8 { return uint8(math.Round(from[i] + (to[i]-from[i])*t)) }
	return color.RGBA{R: mix(0), G: mix(1), B: mix(2), A: 255}
}

// Heatmap draws the correlation matrix as an annotated grid.
func (r *Renderer) Heatmap(w io.Writer, corr *analysis.CorrMatrix) error {
	if corr == nil || len(corr.Columns) == 0 {
		return ErrNoData
	}
	n := len(corr.Columns)
	face := basicfont.Face7x13
	charW := face.Advance
	lineH := face.Metrics().Height.Ceil()

	labelW := 0
	for _, c := range corr.Columns {
		labelW = max(labelW, len([]rune(c))*charW)
	}
	labelW = min(labelW, r.Width/4)
	left := labelW + 12
	top := lineH + 16
	bottom := lineH + 12
	cell := min((r.Width-left-12)/n, (r.Height-top-bottom)/n)
	if cell < 8 {
		return fmt.Errorf("heatmap: %d columns do not fit in %dx%d", n, r.Width, r.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	dr := &font.Drawer{Dst: img, Src: image.Black, Face: face}

	text := func(s string, x, y int, src image.Image) {
		dr.Src = src
		dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
		dr.DrawString(s)
	}
	fit := func(s string, width int) string {
		rs := []rune(s)
		maxChars := width / charW
		if maxChars <= 0 {
			return ""
		}
		if len(rs) > maxChars {
			if maxChars <= 1 {
				return string(rs[:maxChars])
			}
			return string(rs[:maxChars-1]) + "…"
		}
		return s
	}

	title := "Correlation Heatmap"
	text(title, (r.Width-len(title)*charW)/2, lineH+2, image.Black)

	for i := 0; i < n; i++ {
		y0 := top + i*cell
		lbl := fit(corr.Columns[i], labelW)
		text(lbl, left-6-len([]rune(lbl))*charW, y0+cell/2+lineH/3, image.Black)
		for j := 0; j < n; j++ {
			x0 := left + j*cell
			v := corr.Values[i][j]
			bg := coolwarm(v)
			draw.Draw(img, image.Rect(x0, y0, x0+cell-1, y0+cell-1), &image.Uniform{C: bg}, image.Point{}, draw.Src)
			ann := "nan"
			if !math.IsNaN(v) {
				ann = fmt.Sprintf("%.2f", v)
			}
			if len(ann)*charW > cell-2 {
				continue
			}
			src := image.Black
			if math.Abs(v) > 0.6 {
				src = image.White
			}
			text(ann, x0+(cell-len(ann)*charW)/2, y0+cell/2+lineH/3, src)
		}
	}
	for j := 0; j < n; j++ {
		lbl := fit(corr.Columns[j], cell-2)
		x0 := left + j*cell
		text(lbl, x0+(cell-len([]rune(lbl))*charW)/2, top+n*cell+lineH, image.Black)
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode heatmap: %w", err)
	}
	return nil
}
