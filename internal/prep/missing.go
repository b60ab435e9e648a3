package prep

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Strategy selects how missing values are handled.
type Strategy string

const (
	StrategyNone   Strategy = "none"
	StrategyMean   Strategy = "mean"
	StrategyMedian Strategy = "median"
	StrategyDrop   Strategy = "drop"
)

// Strategies lists the accepted strategies in display order.
var Strategies = []Strategy{StrategyMean, StrategyMedian, StrategyDrop, StrategyNone}

// Label is the human-facing name of a strategy.
func (s Strategy) Label() string {
	switch s {
	case StrategyMean:
		return "Mean Imputation"
	case StrategyMedian:
		return "Median Imputation"
	case StrategyDrop:
		return "Drop Rows"
	default:
		return "Do Nothing"
	}
}

// ParseStrategy accepts short names and UI labels, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "do nothing", "nothing":
		return StrategyNone, nil
	case "mean", "mean imputation":
		return StrategyMean, nil
	case "median", "median imputation":
		return StrategyMedian, nil
	case "drop", "drop rows", "dropna":
		return StrategyDrop, nil
	default:
		return "", fmt.Errorf("invalid missing-value strategy: %s (use mean|median|drop|none)", s)
	}
}

// Summary reports what HandleMissing changed.
type Summary struct {
	Strategy    Strategy           `json:"strategy"`
	Filled      map[string]int     `json:"filled,omitempty"`
	FillValues  map[string]float64 `json:"fill_values,omitempty"`
	RowsDropped int                `json:"rows_dropped"`
}

// HandleMissing applies s to ds in place. Mean and median fill numeric columns only;
// a numeric column with no observed values is left untouched. Drop removes every row
// that has a missing cell in any column.
func HandleMissing(ds *dataset.Dataset, s Strategy) (Summary, error) {
	sum := Summary{Strategy: s}
	switch s {
	case StrategyNone:
		return sum, nil
	case StrategyDrop:
		keep, err := completeRows(ds)
		if err != nil {
			return sum, err
		}
		sum.RowsDropped = ds.Nrow() - len(keep)
		if sum.RowsDropped == 0 {
			return sum, nil
		}
		return sum, ds.Keep(keep)
	case StrategyMean, StrategyMedian:
		sum.Filled = map[string]int{}
		sum.FillValues = map[string]float64{}
		for _, name := range ds.NumericNames() {
			vals, err := ds.Float(name)
			if err != nil {
				return sum, err
			}
			observed := observedValues(vals)
			if len(observed) == 0 || len(observed) == len(vals) {
				continue
			}
			var fill float64
			if s == StrategyMean {
				fill = stat.Mean(observed, nil)
			} else {
				fill = Median(observed)
			}
			n := 0
			for i, v := range vals {
				if math.IsNaN(v) {
					vals[i] = fill
					n++
				}
			}
			if err := ds.SetFloat(name, vals); err != nil {
				return sum, err
			}
			sum.Filled[name] = n
			sum.FillValues[name] = fill
		}
		return sum, nil
	default:
		return sum, fmt.Errorf("invalid missing-value strategy: %q", s)
	}
}

func completeRows(ds *dataset.Dataset) ([]int, error) {
	n := ds.Nrow()
	bad := make([]bool, n)
	for _, name := range ds.Names() {
		mask, err := ds.Missing(name)
		if err != nil {
			return nil, err
		}
		for i, m := range mask {
			if m {
				bad[i] = true
			}
		}
	}
	keep := make([]int, 0, n)
	for i, b := range bad {
		if !b {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

func observedValues(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Median returns the midpoint of vals (average of the two middle values for even counts).
// Missing values are not filtered here.
func Median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	cp := make([]float64, n)
	copy(cp, vals)
	sort.Float64s(cp)
	// Empirical picks the lower middle value for even counts
	lo := stat.Quantile(0.5, stat.Empirical, cp, nil)
	if n%2 == 1 {
		return lo
	}
	return (lo + cp[n/2]) / 2
}
