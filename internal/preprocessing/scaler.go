package preprocessing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned when transforming with an unfitted scaler
	ErrNotFitted = errors.New("scaler is not fitted")
	// ErrAlreadyFitted is returned by Fit on a fitted scaler; a fitted scaler is never refit
	ErrAlreadyFitted = errors.New("scaler is already fitted")
)

// zeroScale is the cutoff below which a standard deviation counts as zero.
const zeroScale = 10 * 2.220446049250313e-16

// StandardScaler standardizes features to zero mean and unit variance using
// the population standard deviation of the data it was fitted on.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// NewStandardScaler returns an unfitted scaler
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fitted reports whether Fit has succeeded
func (s *StandardScaler) Fitted() bool {
	return s != nil && len(s.Mean) > 0
}

// Fit learns one mean and scale per column. Constant columns get scale 1.
func (s *StandardScaler) Fit(columns [][]float64) error {
	if s.Fitted() {
		return ErrAlreadyFitted
	}
	if len(columns) == 0 {
		return errors.New("no columns to fit")
	}

	mean := make([]float64, len(columns))
	scale := make([]float64, len(columns))
	for j, col := range columns {
		if len(col) == 0 {
			return fmt.Errorf("column %d is empty", j)
		}
		m, variance := stat.PopMeanVariance(col, nil)
		sd := math.Sqrt(variance)
		if sd < zeroScale {
			sd = 1
		}
		mean[j], scale[j] = m, sd
	}

	s.Mean, s.Scale = mean, scale
	return nil
}

// TransformValue standardizes x as feature j. Batch and single-record paths
// both go through here, so equal inputs always give bit-identical outputs.
func (s *StandardScaler) TransformValue(j int, x float64) float64 {
	return (x - s.Mean[j]) / s.Scale[j]
}

// Transform standardizes one row of values.
func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if len(values) != len(s.Mean) {
		return nil, fmt.Errorf("expected %d values, got %d", len(s.Mean), len(values))
	}

	out := make([]float64, len(values))
	for j, x := range values {
		out[j] = s.TransformValue(j, x)
	}
	return out, nil
}
