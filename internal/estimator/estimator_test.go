package estimator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"github.com/stretchr/testify/require"
)

// blobs returns k well separated 2-D clusters with n points each.
func blobs(n, k int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []float64
	for c := 0; c < k; c++ {
		cx, cy := float64(c*10), float64((c%2)*10)
		for i := 0; i < n; i++ {
			X = append(X, []float64{cx + rng.NormFloat64(), cy + rng.NormFloat64()})
			y = append(y, float64(c))
		}
	}
	return X, y
}

// line returns y = 3a - 2b + 5 with small noise.
func line(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a, b := rng.Float64()*10, rng.Float64()*10
		X[i] = []float64{a, b}
		y[i] = 3*a - 2*b + 5 + rng.NormFloat64()*0.01
	}
	return X, y
}

func accuracy(pred, y []float64) float64 {
	ok := 0
	for i := range y {
		if pred[i] == y[i] {
			ok++
		}
	}
	return float64(ok) / float64(len(y))
}

func TestParseTaskAndFamily(t *testing.T) {
	task, err := ParseTask("Classification")
	require.NoError(t, err)
	assert.Equal(t, Classification, task)
	_, err = ParseTask("clustering")
	assert.Error(t, err)

	for in, want := range map[string]Family{
		"Random Forest": RandomForest, "Logistic Regression": Linear, "Linear Regression": Linear, "SVM": SVM,
	} {
		got, err := ParseFamily(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, "Logistic Regression", Linear.Label(Classification))
	assert.Equal(t, "Linear Regression", Linear.Label(Regression))
}

func TestNewFactoryCoversEveryPair(t *testing.T) {
	names := map[Task]map[Family]string{
		Classification: {RandomForest: "RandomForestClassifier", Linear: "LogisticRegression", SVM: "LinearSVC"},
		Regression:     {RandomForest: "RandomForestRegressor", Linear: "LinearRegression", SVM: "LinearSVR"},
	}
	for task, fams := range names {
		for fam, want := range fams {
			m, err := New(task, fam, Params{})
			require.NoError(t, err)
			assert.Equal(t, want, m.Name())
		}
	}
	_, err := New("ranking", Linear, Params{})
	assert.Error(t, err)
	_, err = New(Regression, "boosting", Params{})
	assert.Error(t, err)
}

func TestClassifiersSeparateBlobs(t *testing.T) {
	X, y := blobs(30, 3, 1)
	for _, fam := range []Family{RandomForest, Linear, SVM} {
		t.Run(string(fam), func(t *testing.T) {
			m, err := New(Classification, fam, Params{Trees: 20})
			require.NoError(t, err)
			require.NoError(t, m.Fit(X, y))
			pred, err := m.Predict(X)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, accuracy(pred, y), 0.95)
		})
	}
}

func TestBinaryLinearClassifiers(t *testing.T) {
	X, y := blobs(40, 2, 2)
	for _, m := range []Predictor{NewLogistic(Params{}), NewLinearSVC(Params{})} {
		require.NoError(t, m.Fit(X, y))
		pred, err := m.Predict([][]float64{{0, 0}, {10, 10}})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1}, pred, m.Name())
	}
}

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	X, y := line(200, 3)
	m := NewLinearRegression()
	require.NoError(t, m.Fit(X, y))
	coef := m.Coef()
	assert.InDelta(t, 3, coef[0], 1e-2)
	assert.InDelta(t, -2, coef[1], 1e-2)
	assert.InDelta(t, 5, coef[2], 1e-2)
}

func TestSciCoefMatchesSVDOnWellPosedData(t *testing.T) {
	X, y := line(100, 9)
	var mx0, mx1, my float64
	for i, row := range X {
		mx0 += row[0] / 100
		mx1 += row[1] / 100
		my += y[i] / 100
	}
	a := mat.NewDense(len(X), 2, nil)
	b := mat.NewVecDense(len(y), nil)
	for i, row := range X {
		a.Set(i, 0, row[0]-mx0)
		a.Set(i, 1, row[1]-mx1)
		b.SetVec(i, y[i]-my)
	}
	sci, ok := sciCoef(a, b, 2)
	require.True(t, ok)
	svd, err := svdCoef(a, b, len(X), 2)
	require.NoError(t, err)
	assert.InDelta(t, svd[0], sci[0], 1e-2)
	assert.InDelta(t, svd[1], sci[1], 1e-2)

	_, ok = sciCoef(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), mat.NewVecDense(2, []float64{1, 1}), 2)
	assert.False(t, ok, "fewer rows than features is left to the SVD path")
}

func TestLinearRegressionCollinearFeatures(t *testing.T) {
	X := [][]float64{{1, 2, 7}, {2, 4, 7}, {3, 6, 7}, {4, 8, 7}}
	y := []float64{1, 2, 3, 4}
	m := NewLinearRegression()
	require.NoError(t, m.Fit(X, y))
	pred, err := m.Predict(X)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], pred[i], 1e-9)
	}
}

func TestRegressorsTrackLine(t *testing.T) {
	X, y := line(150, 4)
	for _, fam := range []Family{RandomForest, SVM} {
		t.Run(string(fam), func(t *testing.T) {
			m, err := New(Regression, fam, Params{Trees: 30, MaxIter: 500})
			require.NoError(t, err)
			require.NoError(t, m.Fit(X, y))
			pred, err := m.Predict(X)
			require.NoError(t, err)
			var sse, sst, mean float64
			for _, v := range y {
				mean += v
			}
			mean /= float64(len(y))
			for i := range y {
				sse += (y[i] - pred[i]) * (y[i] - pred[i])
				sst += (y[i] - mean) * (y[i] - mean)
			}
			assert.Greater(t, 1-sse/sst, 0.9)
		})
	}
}

func TestForestIsDeterministicForSeed(t *testing.T) {
	X, y := blobs(20, 2, 5)
	pts := [][]float64{{5, 5}, {4, 6}, {6, 4}}
	run := func() []float64 {
		f := NewForest(false, Params{Trees: 15, Seed: 7})
		require.NoError(t, f.Fit(X, y))
		p, err := f.Predict(pts)
		require.NoError(t, err)
		return p
	}
	assert.Equal(t, run(), run())
}

func TestForestMaxDepthOneIsAStump(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{0, 0, 1, 1}
	f := NewForest(true, Params{Trees: 1, MaxDepth: 1})
	require.NoError(t, f.Fit(X, y))
	assert.LessOrEqual(t, len(f.trees[0].nodes), 3)
}

func TestPredictorErrors(t *testing.T) {
	for _, m := range []Predictor{
		NewForest(true, Params{}), NewForest(false, Params{}), NewLogistic(Params{}),
		NewLinearSVC(Params{}), NewLinearSVR(Params{}), NewLinearRegression(),
	} {
		_, err := m.Predict([][]float64{{1}})
		assert.True(t, errors.Is(err, ErrNotFitted), m.Name())
		assert.True(t, errors.Is(m.Fit(nil, nil), ErrEmpty), m.Name())
		assert.True(t, errors.Is(m.Fit([][]float64{{1}, {2}}, []float64{0}), ErrShape), m.Name())
		assert.True(t, errors.Is(m.Fit([][]float64{{1}, {2, 3}}, []float64{0, 1}), ErrShape), m.Name())
	}

	m := NewLogistic(Params{})
	assert.True(t, errors.Is(m.Fit([][]float64{{1}, {2}}, []float64{0, 0.5}), ErrShape))
	assert.Error(t, m.Fit([][]float64{{1}, {2}}, []float64{0, 0}))

	r := NewLinearRegression()
	require.NoError(t, r.Fit([][]float64{{1, 2}, {2, 3}, {3, 5}}, []float64{1, 2, 3}))
	_, err := r.Predict([][]float64{{1}})
	assert.True(t, errors.Is(err, ErrShape))
}

func TestLossDerivativesMatchFiniteDifferences(t *testing.T) {
	const h = 1e-6
	for _, tc := range []struct {
		name string
		f, d func(z, y float64) float64
	}{
		{"logistic", logLoss, dLogLoss},
		{"sqhinge", sqHinge, dSqHinge},
	} {
		for _, z := range []float64{-2, -0.3, 0.4, 3} {
			for _, y := range []float64{-1, 1} {
				num := (tc.f(z+h, y) - tc.f(z-h, y)) / (2 * h)
				assert.InDelta(t, num, tc.d(z, y), 1e-5, "%s z=%v y=%v", tc.name, z, y)
			}
		}
	}
	assert.False(t, math.IsInf(logLoss(-800, 1), 0))
}
