package prep

import (
	"errors"
	"fmt"
	"math"

	"github.com/YuminosukeSato/scigo/preprocessing"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned by Transform before Fit.
var ErrNotFitted = errors.New("scaler is not fitted")

// StandardScaler standardizes columns to zero mean and unit variance with the scigo
// preprocessing scaler. Variance uses the population (1/n) estimator; constant columns
// keep scale 1 and come out centered.
type StandardScaler struct {
	sc    *preprocessing.StandardScaler
	mean  []float64
	scale []float64
	flat  []bool
}

// Fit learns per-column mean and standard deviation from X (rows × cols).
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.New("scaler: no rows to fit")
	}
	p := len(X[0])
	m, err := toDense(X, p)
	if err != nil {
		return err
	}
	sc := preprocessing.NewStandardScaler(true, true)
	if err := sc.Fit(m); err != nil {
		return fmt.Errorf("scaler: %w", err)
	}
	s.mean = make([]float64, p)
	s.scale = make([]float64, p)
	s.flat = make([]bool, p)
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		mat.Col(col, j, m)
		mu, v := stat.PopMeanVariance(col, nil)
		s.mean[j], s.scale[j] = mu, math.Sqrt(v)
		if s.scale[j] == 0 || math.IsNaN(s.scale[j]) {
			s.scale[j], s.flat[j] = 1, true
		}
	}
	s.sc = sc
	return nil
}

// Transform returns a standardized copy of X using the fitted parameters.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.sc == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(X))
	if len(X) == 0 {
		return out, nil
	}
	m, err := toDense(X, len(s.mean))
	if err != nil {
		return nil, err
	}
	scaled, err := s.sc.Transform(m)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			if s.flat[j] {
				r[j] = v - s.mean[j]
			} else {
				r[j] = scaled.At(i, j)
			}
		}
		out[i] = r
	}
	return out, nil
}

// FitTransform fits on X and returns its standardized copy.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// Mean returns the fitted per-column means.
func (s *StandardScaler) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale returns the fitted per-column standard deviations.
func (s *StandardScaler) Scale() []float64 { return append([]float64(nil), s.scale...) }

func toDense(X [][]float64, p int) (*mat.Dense, error) {
	m := mat.NewDense(len(X), p, nil)
	for i, row := range X {
		if len(row) != p {
			return nil, fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(row), p)
		}
		m.SetRow(i, row)
	}
	return m, nil
}
