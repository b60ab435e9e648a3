// Package dataset holds the in-memory table a session works on.
//
// A Dataset wraps a gota DataFrame whose columns are either numeric (float, NaN for missing)
// or categorical (string, NA for missing). Column kinds are inferred once, when the table is
// loaded, and survive cleaning steps.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/parser"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is the inferred type of a column.
type Kind string

const (
	Numeric     Kind = "numeric"
	Categorical Kind = "categorical"
)

// ErrUnknownColumn is returned when a column name is not present.
var ErrUnknownColumn = errors.New("unknown column")

// ErrNotNumeric is returned when a numeric view of a categorical column is requested.
var ErrNotNumeric = errors.New("column is not numeric")

// missingTokens are cell values treated as absent, in addition to blanks.
var missingTokens = map[string]bool{
	"na": true, "nan": true, "n/a": true, "null": true, "none": true, "<na>": true, "#n/a": true,
}

// Dataset is a mutable named table.
type Dataset struct {
	name string
	df   dataframe.DataFrame
}

// FromTable types the raw string cells of t. A column is numeric when every non-missing
// cell parses as a number (locale separators and a trailing % are accepted).
func FromTable(t *parser.Table) (*Dataset, error) {
	if t == nil || len(t.Header) == 0 {
		return nil, parser.ErrEmpty
	}
	cols := make([]series.Series, len(t.Header))
	for j, name := range t.Header {
		raw := make([]string, len(t.Rows))
		for i, row := range t.Rows {
			if j < len(row) {
				raw[i] = strings.TrimSpace(row[j])
			}
		}
		if nums, ok := parseColumn(raw); ok {
			cols[j] = series.New(nums, series.Float, name)
			continue
		}
		vals := make([]string, len(raw))
		for i, v := range raw {
			if IsMissingToken(v) {
				vals[i] = "NaN" // gota's NA marker for strings
				continue
			}
			vals[i] = v
		}
		cols[j] = series.New(vals, series.String, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, fmt.Errorf("build dataset: %w", df.Err)
	}
	return &Dataset{name: t.Name, df: df}, nil
}

// IsMissingToken reports whether a raw cell denotes a missing value.
func IsMissingToken(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || missingTokens[strings.ToLower(v)]
}

// parseColumn parses every cell with one decimal mark so a column never mixes scales.
func parseColumn(raw []string) ([]float64, bool) {
	present := make([]string, 0, len(raw))
	for _, v := range raw {
		if !IsMissingToken(v) {
			present = append(present, v)
		}
	}
	dec := DecimalMark(present)
	out := make([]float64, len(raw))
	seen := 0
	for i, v := range raw {
		if IsMissingToken(v) {
			out[i] = math.NaN()
			continue
		}
		x, ok := parseWithMark(v, dec)
		if !ok {
			return nil, false
		}
		out[i] = x
		seen++
	}
	return out, seen > 0
}

// Name is the source file name, if any.
func (d *Dataset) Name() string { return d.name }

// Nrow returns the number of rows.
func (d *Dataset) Nrow() int { return d.df.Nrow() }

// Ncol returns the number of columns.
func (d *Dataset) Ncol() int { return d.df.Ncol() }

// Names returns the column names in order.
func (d *Dataset) Names() []string { return d.df.Names() }

// HasColumn reports whether name is a column.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Kind returns the inferred kind of a column.
func (d *Dataset) Kind(name string) (Kind, error) {
	s, err := d.col(name)
	if err != nil {
		return "", err
	}
	if s.Type() == series.Float {
		return Numeric, nil
	}
	return Categorical, nil
}

// IsNumeric reports whether the column exists and is numeric.
func (d *Dataset) IsNumeric(name string) bool {
	k, err := d.Kind(name)
	return err == nil && k == Numeric
}

// NumericNames lists numeric columns in order.
func (d *Dataset) NumericNames() []string {
	var out []string
	for _, n := range d.df.Names() {
		if d.IsNumeric(n) {
			out = append(out, n)
		}
	}
	return out
}

func (d *Dataset) col(name string) (series.Series, error) {
	if !d.HasColumn(name) {
		return series.Series{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return d.df.Col(name), nil
}

// Float returns a copy of a numeric column; missing cells are NaN.
func (d *Dataset) Float(name string) ([]float64, error) {
	s, err := d.col(name)
	if err != nil {
		return nil, err
	}
	if s.Type() != series.Float {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	return s.Float(), nil
}

// Strings returns the column as display strings; missing cells are "".
func (d *Dataset) Strings(name string) ([]string, error) {
	s, err := d.col(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, s.Len())
	if s.Type() == series.Float {
		for i, v := range s.Float() {
			out[i] = FormatNumber(v)
		}
		return out, nil
	}
	nas := s.IsNaN()
	recs := s.Records()
	for i := range out {
		if !nas[i] {
			out[i] = recs[i]
		}
	}
	return out, nil
}

// Missing returns the per-row missing mask of a column.
func (d *Dataset) Missing(name string) ([]bool, error) {
	s, err := d.col(name)
	if err != nil {
		return nil, err
	}
	return missingMask(s), nil
}

// missingMask reads NaN floats directly; gota only flags float elements built from strings.
func missingMask(s series.Series) []bool {
	if s.Type() != series.Float {
		return s.IsNaN()
	}
	vals := s.Float()
	out := make([]bool, len(vals))
	for i, v := range vals {
		out[i] = math.IsNaN(v)
	}
	return out
}

// ColumnMissing is the missing-value count of one column.
type ColumnMissing struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// MissingCounts returns one entry per column, in column order.
func (d *Dataset) MissingCounts() []ColumnMissing {
	out := make([]ColumnMissing, 0, d.Ncol())
	for _, n := range d.df.Names() {
		c := 0
		for _, na := range missingMask(d.df.Col(n)) {
			if na {
				c++
			}
		}
		out = append(out, ColumnMissing{Column: n, Count: c})
	}
	return out
}

// TotalMissing sums MissingCounts.
func (d *Dataset) TotalMissing() int {
	t := 0
	for _, m := range d.MissingCounts() {
		t += m.Count
	}
	return t
}

// Row returns row i as display strings.
func (d *Dataset) Row(i int) []string {
	names := d.df.Names()
	out := make([]string, len(names))
	for j, n := range names {
		s := d.df.Col(n)
		e := s.Elem(i)
		if s.Type() == series.Float {
			out[j] = FormatNumber(e.Float())
			continue
		}
		if !e.IsNA() {
			out[j] = e.String()
		}
	}
	return out
}

// Head returns up to n leading rows.
func (d *Dataset) Head(n int) [][]string {
	if n > d.Nrow() {
		n = d.Nrow()
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.Row(i))
	}
	return out
}

// SetFloat replaces a numeric column in place.
func (d *Dataset) SetFloat(name string, vals []float64) error {
	if err := d.checkReplace(name, len(vals)); err != nil {
		return err
	}
	return d.mutate(series.New(vals, series.Float, name))
}

// SetStrings replaces a categorical column in place; "" marks a missing cell.
func (d *Dataset) SetStrings(name string, vals []string) error {
	if err := d.checkReplace(name, len(vals)); err != nil {
		return err
	}
	cp := make([]string, len(vals))
	for i, v := range vals {
		if v == "" {
			v = "NaN"
		}
		cp[i] = v
	}
	return d.mutate(series.New(cp, series.String, name))
}

func (d *Dataset) checkReplace(name string, n int) error {
	if !d.HasColumn(name) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if n != d.Nrow() {
		return fmt.Errorf("column %q: got %d values for %d rows", name, n, d.Nrow())
	}
	return nil
}

func (d *Dataset) mutate(s series.Series) error {
	df := d.df.Mutate(s)
	if df.Err != nil {
		return fmt.Errorf("mutate %q: %w", s.Name, df.Err)
	}
	d.df = df
	return nil
}

// Keep retains only the given rows, in the given order.
func (d *Dataset) Keep(rows []int) error {
	if len(rows) == 0 {
		d.df = d.emptyLike()
		return nil
	}
	df := d.df.Subset(rows)
	if df.Err != nil {
		return fmt.Errorf("subset rows: %w", df.Err)
	}
	d.df = df
	return nil
}

func (d *Dataset) emptyLike() dataframe.DataFrame {
	names := d.df.Names()
	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i] = series.New([]string{}, d.df.Col(n).Type(), n)
	}
	return dataframe.New(cols...)
}

// Subset returns a new Dataset with the given rows; the receiver is unchanged.
func (d *Dataset) Subset(rows []int) (*Dataset, error) {
	cp := d.Clone()
	if err := cp.Keep(rows); err != nil {
		return nil, err
	}
	return cp, nil
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	return &Dataset{name: d.name, df: d.df.Copy()}
}

// FormatNumber renders floats compactly; NaN renders as "".
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Rows returns every row as display strings, reading each column once.
func (d *Dataset) Rows() [][]string {
	names := d.df.Names()
	n := d.Nrow()
	out := make([][]string, n)
	for i := range out {
		out[i] = make([]string, len(names))
	}
	for j, name := range names {
		vals, _ := d.Strings(name)
		for i, v := range vals {
			out[i][j] = v
		}
	}
	return out
}
