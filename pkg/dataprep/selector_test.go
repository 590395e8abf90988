package dataprep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChi2_KnownValues(t *testing.T) {
	X := [][]float64{{1, 0, 1}, {0, 1, 1}, {1, 0, 1}, {0, 1, 1}}
	y := []int{1, 0, 1, 0}

	scores, pvalues, err := Chi2(X, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 2, 0}, scores, 1e-12)
	assert.InDelta(t, 0.157299, pvalues[0], 1e-5)
	assert.InDelta(t, 1.0, pvalues[2], 1e-12)
}

func TestChi2_RejectsNegative(t *testing.T) {
	_, _, err := Chi2([][]float64{{-1}}, []int{0})
	assert.ErrorIs(t, err, ErrNegative)
}

func TestSelectKBest_PicksTopScores(t *testing.T) {
	// column 1 tracks the label, column 0 is noise, column 2 is all zero
	X := [][]float64{
		{0.5, 1, 0},
		{0.4, 0, 0},
		{0.5, 1, 0},
		{0.6, 0, 0},
	}
	y := []int{1, 0, 1, 0}

	s := NewSelectKBest(2)
	require.NoError(t, s.Fit(X, y))
	assert.True(t, math.IsNaN(s.Scores[2]))
	assert.Equal(t, []int{0, 1}, s.Selected)

	out, err := s.Transform([][]float64{{9, 8, 7}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{9, 8}}, out)
}

func TestSelectKBest_TiesPreferLaterColumn(t *testing.T) {
	X := [][]float64{{1, 0, 1}, {0, 1, 1}, {1, 0, 1}, {0, 1, 1}}
	s := NewSelectKBest(1)
	require.NoError(t, s.Fit(X, []int{1, 0, 1, 0}))
	assert.Equal(t, []int{1}, s.Selected)
}

func TestSelectKBest_Errors(t *testing.T) {
	s := NewSelectKBest(3)
	_, err := s.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, ErrSelectorNotFitted)

	assert.Error(t, s.Fit([][]float64{{1, 2}}, []int{0}))

	s = NewSelectKBest(1)
	require.NoError(t, s.Fit([][]float64{{1, 2}, {2, 1}}, []int{0, 1}))
	_, err = s.Transform([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}
