//go:build !noboost

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_HasBoostingBackends(t *testing.T) {
	assert.Equal(t, []string{
		"randomforest", "logisticregression", "svm", "knn", "naivebayes", "xgboost", "catboost",
	}, Available())
}

func TestGradientBoosting_FirstRoundMatchesNewtonStep(t *testing.T) {
	// one split separates the labels; leaf weight is -G/(H+lambda)*eta
	X := [][]float64{{0}, {0}, {0}, {0}, {1}, {1}, {1}, {1}}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	g := NewGradientBoosting(WithRounds(1), WithMinChild(0))
	require.NoError(t, g.Fit(X, y))

	root := g.Trees[0].Nodes[0]
	require.False(t, root.Leaf)
	assert.InDelta(t, 0.5, root.Threshold, 1e-12)

	// four samples with g = 0.5, h = 0.25 each: -(2)/(1+1)*0.3
	m, err := g.Margin([][]float64{{0}})
	require.NoError(t, err)
	assert.InDelta(t, -0.3, m[0], 1e-12)
}

func TestObliviousBoosting_SymmetricSplits(t *testing.T) {
	X, y := blobs(40, 2, 7)
	o := NewObliviousBoosting(WithIterations(5), WithDepth(3))
	require.NoError(t, o.Fit(X, y))
	for _, tree := range o.Trees {
		assert.Len(t, tree.Leaves, 1<<len(tree.Features))
		assert.LessOrEqual(t, len(tree.Features), 3)
	}
}
