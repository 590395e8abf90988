package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned by Transform before Fit.
	ErrNotFitted = errors.New("stats: scaler is not fitted")
	// ErrWidth is returned when a row width differs from the fitted width.
	ErrWidth = errors.New("stats: row width does not match fitted features")
)

// MinMaxScaler maps each column to [0, 1] using bounds learned in Fit.
// A constant column keeps a divisor of 1, so it transforms to x - min.
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

func NewMinMaxScaler() *MinMaxScaler { return &MinMaxScaler{} }

// Fit records the per-column minimum and maximum of X.
func (s *MinMaxScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("stats: cannot fit scaler on empty X")
	}
	cols := len(X[0])
	s.Min = make([]float64, cols)
	s.Max = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := make([]float64, len(X))
		for i := range X {
			if len(X[i]) != cols {
				return fmt.Errorf("%w: row %d", ErrWidth, i)
			}
			col[i] = X[i][j]
		}
		s.Min[j], s.Max[j] = MinMax(col)
	}
	return nil
}

// Transform scales X with the fitted bounds. Values outside the training
// range land outside [0, 1]; they are not clipped.
func (s *MinMaxScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.Min == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Min) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrWidth, i, len(row), len(s.Min))
		}
		out[i] = make([]float64, len(row))
		for j, v := range row {
			span := s.Max[j] - s.Min[j]
			if span == 0 {
				span = 1
			}
			out[i][j] = (v - s.Min[j]) / span
		}
	}
	return out, nil
}

// FitTransform fits on X and returns the scaled copy.
func (s *MinMaxScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
