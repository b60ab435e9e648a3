package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tabloom-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin is one histogram bar. Numeric bins cover [Lo, Hi); the last one also includes Hi.
type Bin struct {
	Label string  `json:"label"`
	Lo    float64 `json:"lo,omitempty"`
	Hi    float64 `json:"hi,omitempty"`
	Count int     `json:"count"`
}

// Histogram is the distribution of one column, missing values excluded.
type Histogram struct {
	Column  string `json:"column"`
	Numeric bool   `json:"numeric"`
	Bins    []Bin  `json:"bins"`
	Missing int    `json:"missing"`
}

// Total is the number of observed values.
func (h *Histogram) Total() int {
	n := 0
	for _, b := range h.Bins {
		n += b.Count
	}
	return n
}

// NewHistogram bins a numeric column into equal-width bins, or counts the values of a
// categorical column by descending frequency.
func NewHistogram(ds *dataset.Dataset, column string, bins int) (*Histogram, error) {
	if !ds.HasColumn(column) {
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownColumn, column)
	}
	if bins <= 0 {
		bins = 20
	}
	mask, err := ds.Missing(column)
	if err != nil {
		return nil, err
	}
	h := &Histogram{Column: column, Numeric: ds.IsNumeric(column)}
	for _, m := range mask {
		if m {
			h.Missing++
		}
	}
	if !h.Numeric {
		vals, err := ds.Strings(column)
		if err != nil {
			return nil, err
		}
		counts := map[string]int{}
		for i, v := range vals {
			if !mask[i] {
				counts[v]++
			}
		}
		for _, tc := range topValues(counts, 0) {
			h.Bins = append(h.Bins, Bin{Label: tc.Value, Count: tc.Count})
		}
		return h, nil
	}

	raw, err := ds.Float(column)
	if err != nil {
		return nil, err
	}
	vals := observed(raw)
	if len(vals) == 0 {
		return h, nil
	}
	sort.Float64s(vals)
	lo, hi := vals[0], vals[len(vals)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram bins are half-open; nudge the top edge so the maximum is counted
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, vals, nil)
	for i, c := range counts {
		h.Bins = append(h.Bins, Bin{
			Label: fmt.Sprintf("%.4g", dividers[i]),
			Lo:    dividers[i],
			Hi:    dividers[i+1],
			Count: int(c),
		})
	}
	h.Bins[bins-1].Hi = hi
	return h, nil
}
