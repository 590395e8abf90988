// Package model contains the binary classifiers used for stroke-risk
// prediction, the registry that builds them by name, and the metrics and
// curves used to evaluate them.
//
// Every classifier trains on a row-major [][]float64 matrix with integer
// labels and is bound to the feature width it was fitted on. Classifiers that
// can score rows also implement ProbabilityEstimator.
package model

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFitted is returned by Predict before Fit.
	ErrNotFitted = errors.New("model: not fitted")
	// ErrDimension is returned when X does not have the fitted width.
	ErrDimension = errors.New("model: feature dimension mismatch")
	// ErrNotBinary is returned by classifiers that only accept 0/1 labels.
	ErrNotBinary = errors.New("model: labels must be 0 or 1")
)

// Classifier is a supervised binary classifier.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
}

// ProbabilityEstimator optionally exposes probabilities.
type ProbabilityEstimator interface {
	PredictProba(X [][]float64) ([]float64, error) // returns p(y=1) per row
}

// LoggerSetter is implemented by classifiers that log while fitting
// (convergence warnings and the like).
type LoggerSetter interface {
	SetLogger(zerolog.Logger)
}

// checkXY validates a training set: non-empty, one label per row, equal
// row widths. It returns the row width.
func checkXY(X [][]float64, y []int) (int, error) {
	if len(X) == 0 {
		return 0, errors.New("model: empty X")
	}
	if len(y) != len(X) {
		return 0, fmt.Errorf("model: %d rows but %d labels", len(X), len(y))
	}
	p := len(X[0])
	if p == 0 {
		return 0, errors.New("model: X has no features")
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, fmt.Errorf("model: inconsistent number of features in row %d", i)
		}
	}
	return p, nil
}

// checkWidth validates that every row of X has p features.
func checkWidth(X [][]float64, p int) error {
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("%w: row %d has %d features, model expects %d", ErrDimension, i, len(row), p)
		}
	}
	return nil
}

// checkBinary validates that every label is 0 or 1 and returns them as
// float targets.
func checkBinary(y []int) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: got %d", ErrNotBinary, v)
		}
		out[i] = float64(v)
	}
	return out, nil
}

// BinaryPredFromProba thresholds probabilities into 0/1 labels.
func BinaryPredFromProba(proba []float64, threshold float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}
