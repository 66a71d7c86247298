package pipeline

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrSplitTooSmall is returned when either side of a split would be empty
var ErrSplitTooSmall = errors.New("not enough rows to split into train and test sets")

// Split holds row indices of the train and test partitions.
type Split struct {
	Train []int `json:"-"`
	Test  []int `json:"-"`
}

// TrainTestSplit shuffles 0..n-1 with a generator seeded by seed and takes
// the first ceil(testRatio*n) indices as the test set. The same n, ratio and
// seed always give the same split.
func TrainTestSplit(n int, testRatio float64, seed uint64) (Split, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, fmt.Errorf("test ratio must be in (0, 1), got %v", testRatio)
	}

	// The epsilon absorbs representation error such as 0.2*n landing just above an integer.
	nTest := int(math.Ceil(testRatio*float64(n) - 1e-9))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return Split{}, fmt.Errorf("%w: %d rows with test ratio %v", ErrSplitTooSmall, n, testRatio)
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
}
