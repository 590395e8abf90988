// Package loader partitions prepared matrices into train and test sets.
package loader

import (
	"errors"
	"math"
	"math/rand"
)

// Split is a train/test partition of a labeled matrix.
type Split struct {
	XTrain, XTest [][]float64
	YTrain, YTest []int
}

// TrainTestSplit shuffles rows with a seeded generator and holds out
// ceil(testRatio*n) of them for testing. The same seed always yields the
// same partition.
func TrainTestSplit(X [][]float64, Y []int, testRatio float64, seed int64) (*Split, error) {
	n := len(X)
	if n != len(Y) {
		return nil, errors.New("loader: X and Y length mismatch")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, errors.New("loader: test ratio must be in (0, 1)")
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest < 1 || n-nTest < 1 {
		return nil, errors.New("loader: not enough rows to split")
	}

	indices := rand.New(rand.NewSource(seed)).Perm(n)
	s := &Split{
		XTrain: make([][]float64, 0, n-nTest),
		XTest:  make([][]float64, 0, nTest),
		YTrain: make([]int, 0, n-nTest),
		YTest:  make([]int, 0, nTest),
	}
	for i, idx := range indices {
		if i < nTest {
			s.XTest = append(s.XTest, X[idx])
			s.YTest = append(s.YTest, Y[idx])
		} else {
			s.XTrain = append(s.XTrain, X[idx])
			s.YTrain = append(s.YTrain, Y[idx])
		}
	}
	return s, nil
}
