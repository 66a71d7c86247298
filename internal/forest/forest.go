package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotFitted is returned when predicting before Fit
	ErrNotFitted = errors.New("forest is not fitted")
	// ErrEmptyInput is returned by Fit for a matrix without rows or columns
	ErrEmptyInput = errors.New("no training samples")
	// ErrDimensionMismatch is returned for inconsistent shapes
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidLabel is returned for labels other than 0 and 1
	ErrInvalidLabel = errors.New("labels must be 0 or 1")
)

// Forest is a bagged ensemble of CART trees for binary classification.
// A fitted Forest is read-only and safe for concurrent prediction.
type Forest struct {
	params    Params
	trees     []*Tree
	nFeatures int
}

// New creates an unfitted forest
func New(opts ...Option) *Forest {
	params := DefaultParams()
	for _, opt := range opts {
		opt(&params)
	}
	return &Forest{params: params}
}

// Params returns the configuration the forest was created with
func (f *Forest) Params() Params {
	return f.params
}

// Trees returns the fitted trees
func (f *Forest) Trees() []*Tree {
	return f.trees
}

// Fitted reports whether Fit has completed
func (f *Forest) Fitted() bool {
	return len(f.trees) > 0
}

// Fit grows every tree on its own bootstrap sample of X. Each tree draws from
// a generator seeded from the forest seed, so equal inputs and seeds give
// identical forests.
func (f *Forest) Fit(X mat.Matrix, y []int) error {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return ErrEmptyInput
	}
	if len(y) != n {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, n, len(y))
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("%w: label %d at row %d", ErrInvalidLabel, label, i)
		}
	}
	if f.params.Trees <= 0 {
		return fmt.Errorf("forest needs at least one tree, got %d", f.params.Trees)
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}

	maxFeatures := f.params.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(p))))
	}
	maxFeatures = min(maxFeatures, p)

	minSplit := max(f.params.MinSamplesSplit, 2)
	params := f.params
	params.MinSamplesSplit = minSplit

	seeder := rand.New(rand.NewPCG(f.params.Seed, f.params.Seed))
	trees := make([]*Tree, f.params.Trees)
	for t := range trees {
		rng := rand.New(rand.NewPCG(seeder.Uint64(), seeder.Uint64()))

		bootstrap := make([]int, n)
		for i := range bootstrap {
			bootstrap[i] = rng.IntN(n)
		}

		b := &builder{
			rows:        rows,
			labels:      y,
			rng:         rng,
			params:      params,
			maxFeatures: maxFeatures,
			scratch:     make([]sample, 0, n),
		}
		trees[t] = b.grow(bootstrap)
	}

	f.trees = trees
	f.nFeatures = p
	return nil
}

// PredictProba returns the mean over trees of the positive-class fraction
// in the leaf that row reaches.
func (f *Forest) PredictProba(row []float64) (float64, error) {
	if !f.Fitted() {
		return 0, ErrNotFitted
	}
	if len(row) != f.nFeatures {
		return 0, fmt.Errorf("%w: expected %d features, got %d", ErrDimensionMismatch, f.nFeatures, len(row))
	}

	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees)), nil
}

// Predict returns 1 when the positive-class probability exceeds one half.
func (f *Forest) Predict(row []float64) (int, error) {
	p, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return Label(p), nil
}

// PredictProbaMatrix scores every row of X.
func (f *Forest) PredictProbaMatrix(X mat.Matrix) ([]float64, error) {
	n, _ := X.Dims()
	out := make([]float64, n)
	for i := range out {
		p, err := f.PredictProba(mat.Row(nil, i, X))
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// Label converts a positive-class probability to a class. Ties go to class 0.
func Label(p float64) int {
	if p > 0.5 {
		return 1
	}
	return 0
}
