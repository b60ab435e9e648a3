package prep

import (
	"fmt"
	"sort"
)

// LabelEncoder maps the distinct values of one column to integer codes 0..k-1,
// assigned in sorted value order.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// Fit learns the distinct values of vals.
func (e *LabelEncoder) Fit(vals []string) *LabelEncoder {
	set := map[string]struct{}{}
	for _, v := range vals {
		set[v] = struct{}{}
	}
	e.classes = make([]string, 0, len(set))
	for v := range set {
		e.classes = append(e.classes, v)
	}
	sort.Strings(e.classes)
	e.index = make(map[string]int, len(e.classes))
	for i, v := range e.classes {
		e.index[v] = i
	}
	return e
}

// Transform encodes vals; a value unseen by Fit is an error.
func (e *LabelEncoder) Transform(vals []string) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		code, ok := e.index[v]
		if !ok {
			return nil, fmt.Errorf("label encoder: unseen value %q", v)
		}
		out[i] = float64(code)
	}
	return out, nil
}

// FitTransform fits on vals and encodes them.
func (e *LabelEncoder) FitTransform(vals []string) []float64 {
	out, _ := e.Fit(vals).Transform(vals)
	return out
}

// Decode returns the value behind a code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("label encoder: code %d out of range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

// Classes returns the learned values in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
