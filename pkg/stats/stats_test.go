package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariance(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 4.0, Variance(x), 1e-12)
	assert.Equal(t, 0.0, Variance(nil))
}

func TestMatrixVariance(t *testing.T) {
	assert.InDelta(t, 1.25, MatrixVariance([][]float64{{1, 2}, {3, 4}}), 1e-12)
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -1, 8, 2})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 8.0, hi)
}

func TestQuantiles(t *testing.T) {
	t.Run("few distinct values use midpoints", func(t *testing.T) {
		assert.Equal(t, []float64{0.5}, Quantiles([]float64{0, 0, 0, 1, 0}, 32))
	})
	t.Run("constant column has no cuts", func(t *testing.T) {
		assert.Empty(t, Quantiles([]float64{2, 2, 2}, 8))
	})
	t.Run("continuous column is bounded by n", func(t *testing.T) {
		x := make([]float64, 1000)
		for i := range x {
			x[i] = float64(i)
		}
		q := Quantiles(x, 4)
		assert.Equal(t, []float64{250, 500, 750}, q)
	})
}
