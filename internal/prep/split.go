package prep

import (
	"fmt"
	"math"
	"math/rand"
)

// Split shuffles row indices 0..n-1 with seed and returns train and test index sets.
// The test set holds ceil(testSize*n) rows; there is no stratification.
func Split(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be in (0,1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain <= 0 {
		return nil, nil, fmt.Errorf("cannot split %d rows with test size %v: both subsets must be non-empty", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}
