package estimator

import (
	"errors"
	"fmt"
	"math"

	sclinear "github.com/YuminosukeSato/scigo/linear"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// primal is an L2-regularized linear objective over w = [weights..., bias].
// margin losses see y in {-1,+1}; regression losses see the raw target.
type primal struct {
	X        [][]float64
	y        []float64
	c        float64
	regBias  bool
	loss     func(z, y float64) float64
	dloss    func(z, y float64) float64 // d loss / d z
	scratchZ []float64
}

func (o *primal) decision(w []float64) []float64 {
	p := len(w) - 1
	if o.scratchZ == nil {
		o.scratchZ = make([]float64, len(o.X))
	}
	for i, row := range o.X {
		o.scratchZ[i] = floats.Dot(row, w[:p]) + w[p]
	}
	return o.scratchZ
}

func (o *primal) reg(w []float64) []float64 {
	if o.regBias {
		return w
	}
	return w[:len(w)-1]
}

func (o *primal) f(w []float64) float64 {
	r := o.reg(w)
	v := 0.5 * floats.Dot(r, r)
	for i, z := range o.decision(w) {
		v += o.c * o.loss(z, o.y[i])
	}
	return v
}

func (o *primal) grad(g, w []float64) {
	p := len(w) - 1
	copy(g, w)
	if !o.regBias {
		g[p] = 0
	}
	for i, z := range o.decision(w) {
		d := o.c * o.dloss(z, o.y[i])
		if d == 0 {
			continue
		}
		floats.AddScaled(g[:p], d, o.X[i])
		g[p] += d
	}
}

func (o *primal) minimize(maxIter int) ([]float64, error) {
	if len(o.X) == 0 {
		return nil, ErrEmpty
	}
	x0 := make([]float64, len(o.X[0])+1)
	problem := optimize.Problem{Func: o.f, Grad: o.grad}
	settings := &optimize.Settings{MajorIterations: maxIter, GradientThreshold: 1e-6}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if res == nil {
		return nil, fmt.Errorf("lbfgs: %w", err)
	}
	// a line-search stall near the optimum still leaves a usable point
	for _, v := range res.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("lbfgs diverged: %v", err)
		}
	}
	return res.X, nil
}

func logLoss(z, y float64) float64 {
	m := y * z
	if m >= 0 {
		return math.Log1p(math.Exp(-m))
	}
	return -m + math.Log1p(math.Exp(m))
}

func dLogLoss(z, y float64) float64 {
	return -y / (1 + math.Exp(y*z))
}

func sqHinge(z, y float64) float64 {
	if d := 1 - y*z; d > 0 {
		return d * d
	}
	return 0
}

func dSqHinge(z, y float64) float64 {
	if d := 1 - y*z; d > 0 {
		return -2 * d * y
	}
	return 0
}

// ovr fits one binary margin model per class (a single model for two classes) and
// predicts the class with the largest decision value.
type ovr struct {
	name    string
	c       float64
	maxIter int
	regBias bool
	loss    func(z, y float64) float64
	dloss   func(z, y float64) float64
	nFeat   int
	w       [][]float64 // per class; len 1 when binary
}

func (m *ovr) Name() string { return m.name }

func (m *ovr) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	k, err := classCount(y)
	if err != nil {
		return err
	}
	if k < 2 {
		return fmt.Errorf("%s needs at least 2 classes, got %d", m.name, k)
	}
	m.nFeat = p
	models := k
	if k == 2 {
		models = 1
	}
	m.w = make([][]float64, models)
	for c := 0; c < models; c++ {
		pos := float64(c)
		if k == 2 {
			pos = 1
		}
		yy := make([]float64, len(y))
		for i, v := range y {
			yy[i] = -1
			if v == pos {
				yy[i] = 1
			}
		}
		o := &primal{X: X, y: yy, c: m.c, regBias: m.regBias, loss: m.loss, dloss: m.dloss}
		w, err := o.minimize(m.maxIter)
		if err != nil {
			return fmt.Errorf("%s class %d: %w", m.name, c, err)
		}
		m.w[c] = w
	}
	return nil
}

func (m *ovr) Predict(X [][]float64) ([]float64, error) {
	if m.w == nil {
		return nil, ErrNotFitted
	}
	if _, err := checkX(X, m.nFeat); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	scores := make([]float64, len(m.w))
	for i, row := range X {
		for c, w := range m.w {
			scores[c] = floats.Dot(row, w[:m.nFeat]) + w[m.nFeat]
		}
		if len(m.w) == 1 {
			if scores[0] > 0 {
				out[i] = 1
			}
			continue
		}
		out[i] = float64(floats.MaxIdx(scores))
	}
	return out, nil
}

// NewLogistic returns one-vs-rest L2 logistic regression with an unpenalized intercept.
func NewLogistic(p Params) Predictor {
	p = p.withDefaults()
	return &ovr{name: "LogisticRegression", c: p.LogisticC, maxIter: p.MaxIter, loss: logLoss, dloss: dLogLoss}
}

// NewLinearSVC returns one-vs-rest squared-hinge linear SVC. The bias is penalized
// like a constant feature.
func NewLinearSVC(p Params) Predictor {
	p = p.withDefaults()
	return &ovr{name: "LinearSVC", c: p.SVMC, maxIter: p.MaxIter, regBias: true, loss: sqHinge, dloss: dSqHinge}
}

// LinearSVR minimizes the squared epsilon-insensitive loss.
type LinearSVR struct {
	c, eps  float64
	maxIter int
	nFeat   int
	w       []float64
}

// NewLinearSVR returns an unfitted linear support vector regressor.
func NewLinearSVR(p Params) *LinearSVR {
	p = p.withDefaults()
	return &LinearSVR{c: p.SVMC, eps: p.Epsilon, maxIter: p.MaxIter}
}

func (m *LinearSVR) Name() string { return "LinearSVR" }

func (m *LinearSVR) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	eps := m.eps
	o := &primal{
		X: X, y: y, c: m.c, regBias: true,
		loss: func(z, y float64) float64 {
			if d := math.Abs(z-y) - eps; d > 0 {
				return d * d
			}
			return 0
		},
		dloss: func(z, y float64) float64 {
			r := z - y
			if d := math.Abs(r) - eps; d > 0 {
				return 2 * d * math.Copysign(1, r)
			}
			return 0
		},
	}
	w, err := o.minimize(m.maxIter)
	if err != nil {
		return fmt.Errorf("LinearSVR: %w", err)
	}
	m.nFeat, m.w = p, w
	return nil
}

func (m *LinearSVR) Predict(X [][]float64) ([]float64, error) {
	return linearPredict(X, m.w, m.nFeat)
}

// LinearRegression is ordinary least squares with an intercept, fit by the scigo linear
// model on centered columns. When scigo rejects the system or fits worse than the
// minimum-norm SVD solution (collinear or constant features), the SVD solution is kept.
type LinearRegression struct {
	nFeat int
	w     []float64
}

// NewLinearRegression returns an unfitted OLS model.
func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

func (m *LinearRegression) Name() string { return "LinearRegression" }

func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	n := len(X)
	means := make([]float64, p)
	col := make([]float64, n)
	for j := range means {
		for i := range X {
			col[i] = X[i][j]
		}
		means[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	a := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			a.Set(i, j, v-means[j])
		}
		b.SetVec(i, y[i]-yMean)
	}
	coef, err := svdCoef(a, b, n, p)
	if err != nil {
		return err
	}
	if sci, ok := sciCoef(a, b, p); ok && rss(a, b, sci) <= rss(a, b, coef)*(1+1e-9)+1e-12 {
		coef = sci
	}
	w := make([]float64, p+1)
	copy(w, coef)
	w[p] = yMean - floats.Dot(w[:p], means)
	m.nFeat, m.w = p, w
	return nil
}

// sciCoef fits scigo's LinearRegression on centered data and reads the slopes back
// through Predict on the unit vectors. ok is false when the fit fails or is not finite.
func sciCoef(a *mat.Dense, b *mat.VecDense, p int) ([]float64, bool) {
	n, _ := a.Dims()
	if n <= p {
		return nil, false
	}
	lr := sclinear.NewLinearRegression()
	y := mat.NewDense(n, 1, nil)
	y.SetCol(0, b.RawVector().Data)
	if err := lr.Fit(a, y); err != nil {
		return nil, false
	}
	basis := mat.NewDense(p+1, p, nil)
	for j := 0; j < p; j++ {
		basis.Set(j+1, j, 1)
	}
	out, err := lr.Predict(basis)
	if err != nil {
		return nil, false
	}
	origin := out.At(0, 0)
	coef := make([]float64, p)
	for j := range coef {
		coef[j] = out.At(j+1, 0) - origin
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return nil, false
		}
	}
	return coef, true
}

func rss(a *mat.Dense, b *mat.VecDense, coef []float64) float64 {
	var r mat.VecDense
	r.MulVec(a, mat.NewVecDense(len(coef), coef))
	r.SubVec(&r, b)
	return mat.Dot(&r, &r)
}

// svdCoef is the minimum-norm least-squares solution of a·w = b.
func svdCoef(a *mat.Dense, b *mat.VecDense, n, p int) ([]float64, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, errors.New("LinearRegression: SVD factorization failed")
	}
	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(n, p))
	rank := svd.Rank(rcond)
	coef := make([]float64, p)
	if rank > 0 {
		var v mat.VecDense
		svd.SolveVecTo(&v, b, rank)
		for j := range coef {
			coef[j] = v.AtVec(j)
		}
	}
	return coef, nil
}

func (m *LinearRegression) Predict(X [][]float64) ([]float64, error) {
	return linearPredict(X, m.w, m.nFeat)
}

// Coef returns the fitted weights followed by the intercept.
func (m *LinearRegression) Coef() []float64 { return append([]float64(nil), m.w...) }

func linearPredict(X [][]float64, w []float64, p int) ([]float64, error) {
	if w == nil {
		return nil, ErrNotFitted
	}
	if _, err := checkX(X, p); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = floats.Dot(row, w[:p]) + w[p]
	}
	return out, nil
}
