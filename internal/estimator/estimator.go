// Package estimator provides the predictive models a training run can choose from.
package estimator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFitted is returned by Predict before Fit.
	ErrNotFitted = errors.New("model is not fitted")
	// ErrShape is returned when X and y disagree, or X rows differ in width.
	ErrShape = errors.New("inconsistent input shape")
	// ErrEmpty is returned when there are no rows to fit.
	ErrEmpty = errors.New("no training rows")
)

// Task is the kind of prediction problem.
type Task string

const (
	Classification Task = "classification"
	Regression     Task = "regression"
)

// ParseTask accepts "classification"/"regression" in any case.
func ParseTask(s string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "classification", "classify", "clf":
		return Classification, nil
	case "regression", "regress", "reg":
		return Regression, nil
	default:
		return "", fmt.Errorf("invalid task: %s (use classification|regression)", s)
	}
}

// Family is the model family. Linear means logistic regression for classification
// and ordinary least squares for regression.
type Family string

const (
	RandomForest Family = "random-forest"
	Linear       Family = "linear"
	SVM          Family = "svm"
)

// ParseFamily accepts short names and UI labels.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rf", "forest", "random-forest", "random forest", "randomforest":
		return RandomForest, nil
	case "linear", "logistic", "logistic regression", "linear regression", "lr":
		return Linear, nil
	case "svm", "svc", "svr":
		return SVM, nil
	default:
		return "", fmt.Errorf("invalid model: %s (use random-forest|linear|svm)", s)
	}
}

// Label is the display name of the family for a task.
func (f Family) Label(t Task) string {
	switch f {
	case RandomForest:
		return "Random Forest"
	case Linear:
		if t == Regression {
			return "Linear Regression"
		}
		return "Logistic Regression"
	case SVM:
		return "SVM"
	default:
		return string(f)
	}
}

// Params tunes the estimators. Zero values fall back to DefaultParams.
type Params struct {
	Trees     int
	MaxDepth  int // 0 = unlimited
	MinSplit  int
	Seed      int64
	LogisticC float64
	SVMC      float64
	Epsilon   float64
	MaxIter   int
}

// DefaultParams mirrors the library defaults of the usual Python stack.
func DefaultParams() Params {
	return Params{Trees: 100, MinSplit: 2, Seed: 42, LogisticC: 1, SVMC: 1, Epsilon: 0.1, MaxIter: 200}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MinSplit < 2 {
		p.MinSplit = d.MinSplit
	}
	if p.LogisticC <= 0 {
		p.LogisticC = d.LogisticC
	}
	if p.SVMC <= 0 {
		p.SVMC = d.SVMC
	}
	if p.Epsilon < 0 {
		p.Epsilon = d.Epsilon
	}
	if p.MaxIter <= 0 {
		p.MaxIter = d.MaxIter
	}
	return p
}

// Predictor is a fitted-or-not model. For classification y holds class indices 0..k-1
// and Predict returns class indices.
type Predictor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	Name() string
}

// New returns an unfitted predictor for the task/family pair.
func New(task Task, family Family, p Params) (Predictor, error) {
	p = p.withDefaults()
	switch task {
	case Classification:
		switch family {
		case RandomForest:
			return NewForest(true, p), nil
		case Linear:
			return NewLogistic(p), nil
		case SVM:
			return NewLinearSVC(p), nil
		}
	case Regression:
		switch family {
		case RandomForest:
			return NewForest(false, p), nil
		case Linear:
			return NewLinearRegression(), nil
		case SVM:
			return NewLinearSVR(p), nil
		}
	default:
		return nil, fmt.Errorf("invalid task: %q", task)
	}
	return nil, fmt.Errorf("invalid model: %q", family)
}

// checkXY validates a training set and returns its feature count.
func checkXY(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmpty
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d targets", ErrShape, len(X), len(y))
	}
	return checkX(X, len(X[0]))
}

func checkX(X [][]float64, p int) (int, error) {
	for i, row := range X {
		if len(row) != p {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), p)
		}
	}
	return p, nil
}

// classCount returns k for labels 0..k-1, rejecting anything else.
func classCount(y []float64) (int, error) {
	k := 0
	for i, v := range y {
		if v < 0 || v != float64(int(v)) {
			return 0, fmt.Errorf("%w: label %v at row %d is not a class index", ErrShape, v, i)
		}
		if int(v)+1 > k {
			k = int(v) + 1
		}
	}
	return k, nil
}
