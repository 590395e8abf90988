package dataprep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoder_SortedCodes(t *testing.T) {
	e := NewLabelEncoder()
	codes := e.FitTransform([]string{"smokes", "never smoked", "Unknown", "smokes"})

	assert.Equal(t, []string{"Unknown", "never smoked", "smokes"}, e.Classes)
	assert.Equal(t, []int{2, 1, 0, 2}, codes)
	for _, c := range codes {
		assert.GreaterOrEqual(t, c, 0)
		assert.Less(t, c, len(e.Classes))
	}
}

func TestLabelEncoder_TransformUnseen(t *testing.T) {
	e := NewLabelEncoder()
	e.Fit([]string{"Male", "Female"})

	_, err := e.Transform([]string{"Other"})
	assert.ErrorIs(t, err, ErrUnseen)
}

func TestLabelEncoder_TransformOrFirst(t *testing.T) {
	e := NewLabelEncoder()
	e.Fit([]string{"Urban", "Rural"})

	codes, replaced := e.TransformOrFirst([]string{"Urban", "Suburban", "Rural", "Mars"})
	require.Len(t, codes, 4)
	assert.Equal(t, []int{1, 0, 0, 0}, codes)
	assert.Equal(t, 2, replaced)
}

func TestFeatureSelectAndAbs(t *testing.T) {
	X := [][]float64{{1, -2, 3}, {-4, 5, -6}}
	assert.Equal(t, [][]float64{{3, 1}, {-6, -4}}, FeatureSelect(X, []int{2, 0}))
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, Abs(X))
	assert.Equal(t, -2.0, X[0][1])
}
