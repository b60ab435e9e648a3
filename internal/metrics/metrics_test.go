package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]float64{0, 1, 1, 0}, []float64{0, 1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.75, acc)

	_, err = Accuracy(nil, nil)
	assert.True(t, errors.Is(err, ErrLength))
	_, err = Accuracy([]float64{1}, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrLength))
}

func TestMSEAndR2(t *testing.T) {
	actual := []float64{3, -0.5, 2, 7}
	pred := []float64{2.5, 0.0, 2, 8}
	mse, err := MSE(actual, pred)
	require.NoError(t, err)
	assert.InDelta(t, 0.375, mse, 1e-12)

	r2, err := R2(actual, pred)
	require.NoError(t, err)
	assert.InDelta(t, 0.9486081370449679, r2, 1e-12)

	r2, err = R2([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)
}

func TestR2ConstantTargetIsFinite(t *testing.T) {
	r2, err := R2([]float64{4, 4, 4}, []float64{4, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)
	r2, err = R2([]float64{4, 4, 4}, []float64{4, 5, 4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r2)
}

func TestClassificationReport(t *testing.T) {
	actual := []float64{0, 0, 1, 1, 1, 2}
	pred := []float64{0, 1, 1, 1, 0, 1}
	r, err := ClassificationReport(actual, pred, []string{"cat", "dog", "owl"})
	require.NoError(t, err)
	require.Len(t, r.Classes, 3)

	cat := r.Classes[0]
	assert.Equal(t, "cat", cat.Label)
	assert.InDelta(t, 0.5, cat.Precision, 1e-12)
	assert.InDelta(t, 0.5, cat.Recall, 1e-12)
	assert.Equal(t, 2, cat.Support)

	dog := r.Classes[1]
	assert.InDelta(t, 0.5, dog.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, dog.Recall, 1e-12)

	owl := r.Classes[2]
	assert.Zero(t, owl.Precision)
	assert.Zero(t, owl.F1)
	assert.Equal(t, 1, owl.Support)

	assert.InDelta(t, 0.5, r.Accuracy, 1e-12)
	assert.Equal(t, 6, r.WeightedAvg.Support)

	out := r.String()
	assert.Contains(t, out, "precision    recall  f1-score   support")
	assert.Contains(t, out, "    accuracy                           0.50         6")
	assert.Contains(t, out, "weighted avg")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 9)
}

func TestClassificationReportUnnamedLabels(t *testing.T) {
	r, err := ClassificationReport([]float64{0, 3}, []float64{0, 3}, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "a", r.Classes[0].Label)
	assert.Equal(t, "3", r.Classes[1].Label)
}
