package estimator

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Forest is a bagged ensemble of CART trees. Classification trees split on Gini impurity
// over sqrt(p) random features per node and vote by averaged leaf class frequencies;
// regression trees split on squared error over all features and average leaf means.
type Forest struct {
	classify bool
	p        Params
	k        int
	nFeat    int
	trees    []*tree
}

// NewForest returns an unfitted random forest.
func NewForest(classify bool, p Params) *Forest {
	return &Forest{classify: classify, p: p.withDefaults()}
}

func (f *Forest) Name() string {
	if f.classify {
		return "RandomForestClassifier"
	}
	return "RandomForestRegressor"
}

func (f *Forest) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if f.classify {
		if f.k, err = classCount(y); err != nil {
			return err
		}
	}
	f.nFeat = p
	mtry := p
	if f.classify {
		mtry = int(math.Sqrt(float64(p)))
		if mtry < 1 {
			mtry = 1
		}
	}

	// per-tree seeds are drawn up front so the result does not depend on scheduling
	master := rand.New(rand.NewSource(f.p.Seed))
	seeds := make([]int64, f.p.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}
	f.trees = make([]*tree, f.p.Trees)

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for t := range f.trees {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer func() { <-sem; wg.Done() }()
			b := &builder{
				X: X, y: y, classify: f.classify, k: f.k,
				maxDepth: f.p.MaxDepth, minSplit: f.p.MinSplit, mtry: mtry,
				rng: rand.New(rand.NewSource(seeds[t])),
			}
			idx := make([]int, len(X))
			for i := range idx {
				idx[i] = b.rng.Intn(len(X))
			}
			tr := &tree{}
			b.grow(tr, idx, 0)
			f.trees[t] = tr
		}(t)
	}
	wg.Wait()
	return nil
}

func (f *Forest) Predict(X [][]float64) ([]float64, error) {
	if f.trees == nil {
		return nil, ErrNotFitted
	}
	if _, err := checkX(X, f.nFeat); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	if !f.classify {
		for i, row := range X {
			s := 0.0
			for _, t := range f.trees {
				s += t.leaf(row).value
			}
			out[i] = s / float64(len(f.trees))
		}
		return out, nil
	}
	votes := make([]float64, f.k)
	for i, row := range X {
		for c := range votes {
			votes[c] = 0
		}
		for _, t := range f.trees {
			floats.Add(votes, t.leaf(row).dist)
		}
		// MaxIdx returns the first maximum, so ties go to the lower class
		out[i] = float64(floats.MaxIdx(votes))
	}
	return out, nil
}

type treeNode struct {
	feature     int // -1 for a leaf
	threshold   float64
	left, right int
	value       float64   // regression leaf mean
	dist        []float64 // classification leaf class frequencies
}

type tree struct {
	nodes []treeNode
}

func (t *tree) leaf(row []float64) *treeNode {
	n := &t.nodes[0]
	for n.feature >= 0 {
		if row[n.feature] <= n.threshold {
			n = &t.nodes[n.left]
		} else {
			n = &t.nodes[n.right]
		}
	}
	return n
}

type builder struct {
	X        [][]float64
	y        []float64
	classify bool
	k        int
	maxDepth int
	minSplit int
	mtry     int
	rng      *rand.Rand
}

func (b *builder) grow(t *tree, idx []int, depth int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, b.leafNode(idx))
	if len(idx) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) || b.pure(idx) {
		return id
	}
	feat, thr, ok := b.bestSplit(idx)
	if !ok {
		return id
	}
	var left, right []int
	for _, i := range idx {
		if b.X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(t, left, depth+1)
	r := b.grow(t, right, depth+1)
	n := &t.nodes[id]
	n.feature, n.threshold, n.left, n.right = feat, thr, l, r
	n.dist = nil
	return id
}

func (b *builder) leafNode(idx []int) treeNode {
	n := treeNode{feature: -1}
	if b.classify {
		n.dist = make([]float64, b.k)
		for _, i := range idx {
			n.dist[int(b.y[i])]++
		}
		floats.Scale(1/float64(len(idx)), n.dist)
		return n
	}
	for _, i := range idx {
		n.value += b.y[i]
	}
	n.value /= float64(len(idx))
	return n
}

func (b *builder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans mtry random features. Scores are the impurity-reduction proxies
// sum(c^2)/n per side for Gini and sum(y)^2/n per side for squared error; higher is better.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	parent := b.parentScore(idx)
	best := parent + 1e-12
	bestFeat, bestThr, found := -1, 0.0, false

	sorted := make([]int, len(idx))
	features := b.rng.Perm(len(b.X[0]))[:b.mtry]
	for _, f := range features {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })
		if b.X[sorted[0]][f] == b.X[sorted[len(sorted)-1]][f] {
			continue
		}
		var scoreAt func(int) float64
		if b.classify {
			scoreAt = b.giniSweep(sorted)
		} else {
			scoreAt = b.mseSweep(sorted)
		}
		for s := 0; s < len(sorted)-1; s++ {
			score := scoreAt(s)
			lo, hi := b.X[sorted[s]][f], b.X[sorted[s+1]][f]
			if lo == hi {
				continue
			}
			if score > best {
				best, bestFeat, bestThr, found = score, f, lo+(hi-lo)/2, true
				if bestThr == hi {
					bestThr = lo
				}
			}
		}
	}
	return bestFeat, bestThr, found
}

func (b *builder) parentScore(idx []int) float64 {
	n := float64(len(idx))
	if b.classify {
		counts := make([]float64, b.k)
		for _, i := range idx {
			counts[int(b.y[i])]++
		}
		return floats.Dot(counts, counts) / n
	}
	s := 0.0
	for _, i := range idx {
		s += b.y[i]
	}
	return s * s / n
}

// giniSweep returns a stateful scorer that must be called with s = 0, 1, 2, ... in order;
// call s moves sorted[s] from the right side to the left side.
func (b *builder) giniSweep(sorted []int) func(int) float64 {
	left := make([]float64, b.k)
	right := make([]float64, b.k)
	for _, i := range sorted {
		right[int(b.y[i])]++
	}
	sqL, sqR := 0.0, floats.Dot(right, right)
	total := float64(len(sorted))
	return func(s int) float64 {
		c := int(b.y[sorted[s]])
		sqL += 2*left[c] + 1
		left[c]++
		sqR -= 2*right[c] - 1
		right[c]--
		nL := float64(s + 1)
		return sqL/nL + sqR/(total-nL)
	}
}

func (b *builder) mseSweep(sorted []int) func(int) float64 {
	sumR := 0.0
	for _, i := range sorted {
		sumR += b.y[i]
	}
	sumL := 0.0
	total := float64(len(sorted))
	return func(s int) float64 {
		v := b.y[sorted[s]]
		sumL += v
		sumR -= v
		nL := float64(s + 1)
		return sumL*sumL/nL + sumR*sumR/(total-nL)
	}
}
