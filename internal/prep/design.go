package prep

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tabloom-cli/internal/dataset"
)

// ErrMissingValues is returned when a numeric feature or the target still has gaps.
var ErrMissingValues = errors.New("missing values remain")

// ErrContinuousTarget is returned when a classification target has non-integral values.
var ErrContinuousTarget = errors.New("classification target is continuous")

// Design is the numeric view of a dataset for one training run.
type Design struct {
	Features []string
	X        [][]float64 // rows × features
	Y        []float64
	// Classes names the class behind each label 0..k-1 (classification only).
	Classes  []string
	Encoders map[string]*LabelEncoder
	Notes    []string
}

// BuildDesign selects target and features (every other column) and encodes categorical
// columns with one LabelEncoder each, fit on the whole column. For classification Y holds
// class indices into Classes.
func BuildDesign(ds *dataset.Dataset, target string, classify bool) (*Design, error) {
	if !ds.HasColumn(target) {
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownColumn, target)
	}
	d := &Design{Encoders: map[string]*LabelEncoder{}}
	for _, name := range ds.Names() {
		if name != target {
			d.Features = append(d.Features, name)
		}
	}
	if len(d.Features) == 0 {
		return nil, fmt.Errorf("no feature columns besides target %q", target)
	}
	n := ds.Nrow()
	d.X = make([][]float64, n)
	for i := range d.X {
		d.X[i] = make([]float64, len(d.Features))
	}
	encoded := 0
	for j, name := range d.Features {
		col, err := d.featureColumn(ds, name)
		if err != nil {
			return nil, err
		}
		if _, ok := d.Encoders[name]; ok {
			encoded++
		}
		for i, v := range col {
			d.X[i][j] = v
		}
	}
	if encoded > 0 {
		d.Notes = append(d.Notes, fmt.Sprintf(
			"%d categorical feature(s) label-encoded on the full dataset before the train/test split", encoded))
	}
	var err error
	if classify {
		err = d.classTarget(ds, target)
	} else {
		err = d.regressionTarget(ds, target)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// WriteBack replaces every label-encoded column of ds (features and a categorical target)
// with its integer codes, so later steps see the encoded table.
func (d *Design) WriteBack(ds *dataset.Dataset, target string) error {
	for j, name := range d.Features {
		if _, ok := d.Encoders[name]; !ok {
			continue
		}
		col := make([]float64, len(d.X))
		for i, row := range d.X {
			col[i] = row[j]
		}
		if err := ds.SetFloat(name, col); err != nil {
			return fmt.Errorf("write back %q: %w", name, err)
		}
	}
	if _, ok := d.Encoders[target]; ok {
		if err := ds.SetFloat(target, append([]float64(nil), d.Y...)); err != nil {
			return fmt.Errorf("write back %q: %w", target, err)
		}
	}
	return nil
}

func (d *Design) featureColumn(ds *dataset.Dataset, name string) ([]float64, error) {
	if ds.IsNumeric(name) {
		vals, err := ds.Float(name)
		if err != nil {
			return nil, err
		}
		if c := countNaN(vals); c > 0 {
			return nil, fmt.Errorf("%w: feature %q has %d missing value(s); choose an imputation strategy or drop rows", ErrMissingValues, name, c)
		}
		return vals, nil
	}
	// a missing categorical cell becomes its own category ("")
	vals, err := ds.Strings(name)
	if err != nil {
		return nil, err
	}
	enc := &LabelEncoder{}
	d.Encoders[name] = enc
	return enc.FitTransform(vals), nil
}

func (d *Design) classTarget(ds *dataset.Dataset, target string) error {
	if !ds.IsNumeric(target) {
		vals, err := ds.Strings(target)
		if err != nil {
			return err
		}
		for _, v := range vals {
			if v == "" {
				return fmt.Errorf("%w: target %q", ErrMissingValues, target)
			}
		}
		enc := &LabelEncoder{}
		d.Y = enc.FitTransform(vals)
		d.Classes = enc.Classes()
		d.Encoders[target] = enc
		return nil
	}
	vals, err := ds.Float(target)
	if err != nil {
		return err
	}
	set := map[float64]struct{}{}
	for _, v := range vals {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: target %q", ErrMissingValues, target)
		}
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: %q has value %v; use regression or bin the target", ErrContinuousTarget, target, v)
		}
		set[v] = struct{}{}
	}
	labels := make([]float64, 0, len(set))
	for v := range set {
		labels = append(labels, v)
	}
	sort.Float64s(labels)
	index := make(map[float64]int, len(labels))
	d.Classes = make([]string, len(labels))
	for i, v := range labels {
		index[v] = i
		d.Classes[i] = dataset.FormatNumber(v)
	}
	d.Y = make([]float64, len(vals))
	for i, v := range vals {
		d.Y[i] = float64(index[v])
	}
	return nil
}

func (d *Design) regressionTarget(ds *dataset.Dataset, target string) error {
	if ds.IsNumeric(target) {
		vals, err := ds.Float(target)
		if err != nil {
			return err
		}
		if c := countNaN(vals); c > 0 {
			return fmt.Errorf("%w: target %q has %d missing value(s)", ErrMissingValues, target, c)
		}
		d.Y = vals
		return nil
	}
	vals, err := ds.Strings(target)
	if err != nil {
		return err
	}
	enc := &LabelEncoder{}
	d.Y = enc.FitTransform(vals)
	d.Encoders[target] = enc
	d.Notes = append(d.Notes, fmt.Sprintf("regression target %q is categorical and was label-encoded", target))
	return nil
}

// Rows gathers the given rows of X and Y.
func (d *Design) Rows(idx []int) ([][]float64, []float64) {
	X := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for k, i := range idx {
		X[k] = append([]float64(nil), d.X[i]...)
		y[k] = d.Y[i]
	}
	return X, y
}

func countNaN(vals []float64) int {
	c := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			c++
		}
	}
	return c
}
