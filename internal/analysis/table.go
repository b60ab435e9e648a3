package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/dataset"
	"github.com/KaramelBytes/tabloom-cli/internal/prep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	// SampleRows determines how many head rows to include in the report.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categorical value counts kept per column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly analysis of a dataset.
type Report struct {
	Name     string          `json:"name"`
	Rows     int             `json:"rows"`
	Cols     []ColumnSummary `json:"columns"`
	Samples  [][]string      `json:"samples"`
	Warnings []string        `json:"warnings,omitempty"`
	Corr     *CorrMatrix     `json:"corr,omitempty"`
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|datetime|categorical|text
	Unit    string `json:"unit,omitempty"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// A pair with fewer than two complete rows or a constant side is NaN.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Analyze summarizes every column of ds.
func Analyze(ds *dataset.Dataset, opt Options) (*Report, error) {
	rep := &Report{Name: ds.Name(), Rows: ds.Nrow()}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	rep.Samples = ds.Head(sampleRows)

	for _, name := range ds.Names() {
		mask, err := ds.Missing(name)
		if err != nil {
			return nil, err
		}
		clean, unit := splitUnits(name)
		s := ColumnSummary{Name: clean, Unit: unit}
		for _, m := range mask {
			if m {
				s.Missing++
			}
		}
		s.NonNull = len(mask) - s.Missing
		if ds.IsNumeric(name) {
			vals, err := ds.Float(name)
			if err != nil {
				return nil, err
			}
			summarizeNumeric(&s, observed(vals), opt)
		} else {
			vals, err := ds.Strings(name)
			if err != nil {
				return nil, err
			}
			summarizeText(&s, vals, mask, opt)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if opt.Correlations {
		corr, err := Correlations(ds)
		if err != nil {
			return nil, err
		}
		rep.Corr = corr
	}
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "dataset has no rows")
	}
	return rep, nil
}

func summarizeNumeric(s *ColumnSummary, vals []float64, opt Options) {
	s.Kind = "numeric"
	if len(vals) == 0 {
		return
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	if len(vals) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(vals, nil)
	} else {
		s.Mean = vals[0]
	}
	uniq := map[float64]struct{}{}
	for _, v := range vals {
		uniq[v] = struct{}{}
	}
	s.Unique = len(uniq)
	if !opt.Outliers || len(vals) < 8 {
		return
	}
	median, mad := medianMAD(vals)
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	var cnt int
	maxAbsZ := 0.0
	if mad > 0 {
		for _, v := range vals {
			az := math.Abs(0.6745 * (v - median) / mad)
			if az > thr {
				cnt++
			}
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	s.OutliersCount = cnt
	s.OutliersMaxAbsZ = maxAbsZ
	s.OutlierThreshold = thr
}

func summarizeText(s *ColumnSummary, vals []string, mask []bool, opt Options) {
	cats := map[string]int{}
	dt, long := 0, 0
	var examples []string
	for i, v := range vals {
		if mask[i] {
			continue
		}
		cats[v]++
		if _, ok := parseTimeMaybe(v); ok {
			dt++
		}
		if len(v) > 64 {
			long++
		}
		if len(examples) < 3 {
			examples = append(examples, v)
		}
	}
	s.Unique = len(cats)
	switch {
	case s.NonNull > 0 && dt == s.NonNull:
		s.Kind = "datetime"
	case s.NonNull > 0 && long*2 > s.NonNull:
		s.Kind = "text"
		s.ExampleTexts = examples
	default:
		s.Kind = "categorical"
		s.TopValues = topValues(cats, opt.TopValues)
	}
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Correlations computes pairwise Pearson r over numeric columns using, for each pair,
// only rows where both values are present. It returns nil with fewer than two numeric
// columns.
func Correlations(ds *dataset.Dataset) (*CorrMatrix, error) {
	names := ds.NumericNames()
	if len(names) < 2 {
		return nil, nil
	}
	cols := make([][]float64, len(names))
	for i, name := range names {
		v, err := ds.Float(name)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	n := len(names)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	x := make([]float64, 0, ds.Nrow())
	y := make([]float64, 0, ds.Nrow())
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			x, y = x[:0], y[:0]
			for i := range cols[a] {
				if math.IsNaN(cols[a][i]) || math.IsNaN(cols[b][i]) {
					continue
				}
				x = append(x, cols[a][i])
				y = append(y, cols[b][i])
			}
			r := math.NaN()
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
				if r > 1 {
					r = 1
				} else if r < -1 {
					r = -1
				}
			}
			if math.IsInf(r, 0) {
				r = math.NaN()
			}
			m[a][b], m[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: names, Values: m}, nil
}

// MarshalJSON writes undefined coefficients as null.
func (c *CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]*float64, len(c.Values))
	for i, row := range c.Values {
		vals[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				vals[i][j] = &row[j]
			}
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{c.Columns, vals})
}

// TopPairs lists off-diagonal pairs by descending |r|, skipping undefined ones.
func (c *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(c.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.IsNaN(c.Values[i][j]) {
				continue
			}
			pairs = append(pairs, PairCorr{A: c.Columns[i], B: c.Columns[j], R: c.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(pairs[i].R)
		aj := math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func observed(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			}
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					if len(ex) > 80 {
						ex = ex[:77] + "..."
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if r.Corr != nil {
		if pairs := r.Corr.TopPairs(10); len(pairs) > 0 {
			b.WriteString("\n[CORRELATIONS]\n")
			for _, p := range pairs {
				b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
			}
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

// splitUnits pulls a unit suffix out of a header for display; the dataset keeps the raw name.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	median = prep.Median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	return median, prep.Median(dev)
}
