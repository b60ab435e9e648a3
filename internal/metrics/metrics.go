// Package metrics scores holdout predictions.
package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ErrLength is returned when actual and predicted slices differ in length or are empty.
var ErrLength = errors.New("actual and predicted must be non-empty and of equal length")

func check(actual, predicted []float64) error {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return fmt.Errorf("%w: %d vs %d", ErrLength, len(actual), len(predicted))
	}
	return nil
}

// Accuracy is the fraction of exact matches.
func Accuracy(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}
	ok := 0
	for i := range actual {
		if actual[i] == predicted[i] {
			ok++
		}
	}
	return float64(ok) / float64(len(actual)), nil
}

// MSE is the mean squared error.
func MSE(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}
	s := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		s += d * d
	}
	return s / float64(len(actual)), nil
}

// R2 is the coefficient of determination. For a constant target it is 1 on a perfect
// fit and 0 otherwise, so the value is always finite.
func R2(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}
	if _, v := stat.PopMeanVariance(actual, nil); v == 0 {
		for i := range actual {
			if actual[i] != predicted[i] {
				return 0, nil
			}
		}
		return 1, nil
	}
	return stat.RSquaredFrom(predicted, actual, nil), nil
}

// ClassScores holds precision, recall and F1 for one class or average row.
type ClassScores struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a per-class classification summary.
type Report struct {
	Classes     []ClassScores `json:"classes"`
	Accuracy    float64       `json:"accuracy"`
	Support     int           `json:"support"`
	MacroAvg    ClassScores   `json:"macro_avg"`
	WeightedAvg ClassScores   `json:"weighted_avg"`
}

// ClassificationReport scores every class index seen in actual or predicted. names maps
// a class index to its display label; indices without a name print as numbers.
// Undefined ratios (no predictions or no support) count as 0.
func ClassificationReport(actual, predicted []float64, names []string) (*Report, error) {
	acc, err := Accuracy(actual, predicted)
	if err != nil {
		return nil, err
	}
	seen := map[float64]struct{}{}
	for i := range actual {
		seen[actual[i]] = struct{}{}
		seen[predicted[i]] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)

	r := &Report{Accuracy: acc, Support: len(actual)}
	r.MacroAvg.Label, r.WeightedAvg.Label = "macro avg", "weighted avg"
	n := float64(len(actual))
	for _, l := range labels {
		var tp, fp, fn int
		for i := range actual {
			switch {
			case actual[i] == l && predicted[i] == l:
				tp++
			case predicted[i] == l:
				fp++
			case actual[i] == l:
				fn++
			}
		}
		cs := ClassScores{Label: labelName(l, names), Support: tp + fn}
		cs.Precision = ratio(tp, tp+fp)
		cs.Recall = ratio(tp, tp+fn)
		if cs.Precision+cs.Recall > 0 {
			cs.F1 = 2 * cs.Precision * cs.Recall / (cs.Precision + cs.Recall)
		}
		r.Classes = append(r.Classes, cs)

		k := float64(len(labels))
		w := float64(cs.Support) / n
		r.MacroAvg.Precision += cs.Precision / k
		r.MacroAvg.Recall += cs.Recall / k
		r.MacroAvg.F1 += cs.F1 / k
		r.WeightedAvg.Precision += cs.Precision * w
		r.WeightedAvg.Recall += cs.Recall * w
		r.WeightedAvg.F1 += cs.F1 * w
	}
	r.MacroAvg.Support, r.WeightedAvg.Support = len(actual), len(actual)
	return r, nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func labelName(l float64, names []string) string {
	i := int(l)
	if float64(i) == l && i >= 0 && i < len(names) {
		return names[i]
	}
	return strconv.FormatFloat(l, 'g', -1, 64)
}

// String renders the report in the fixed-width layout popularized by scikit-learn.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		if len(c.Label) > width {
			width = len(c.Label)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	row := func(c ClassScores) {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	for _, c := range r.Classes {
		row(c)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Support)
	row(r.MacroAvg)
	row(r.WeightedAvg)
	return b.String()
}
