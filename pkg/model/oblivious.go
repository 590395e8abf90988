//go:build !noboost

package model

import (
	"sort"

	"github.com/nameisahmedh/strokeprediction/pkg/loss"
	"github.com/nameisahmedh/strokeprediction/pkg/stats"
	"github.com/rs/zerolog/log"
)

// ObliviousBoosting boosts symmetric trees: every node on a level tests the
// same feature against the same border, so a tree of depth d is d splits and
// 2^d leaves. Borders are quantiles fixed once before training.
type ObliviousBoosting struct {
	Iterations   int
	LearningRate float64
	Depth        int
	L2LeafReg    float64
	BorderCount  int

	Borders  [][]float64
	Trees    []*ObliviousTree
	NFeature int
}

// ObliviousTree holds one split per level and the leaf values, indexed by the
// bits of the split outcomes (first level is the most significant bit).
type ObliviousTree struct {
	Features []int
	Borders  []float64
	Leaves   []float64
}

// ObliviousOption functional config for ObliviousBoosting
type ObliviousOption func(*ObliviousBoosting)

func WithIterations(n int) ObliviousOption { return func(o *ObliviousBoosting) { o.Iterations = n } }
func WithLearningRate(lr float64) ObliviousOption {
	return func(o *ObliviousBoosting) { o.LearningRate = lr }
}
func WithDepth(d int) ObliviousOption { return func(o *ObliviousBoosting) { o.Depth = d } }

// NewObliviousBoosting returns 200 iterations of depth-6 trees with learning
// rate 0.1, l2 leaf regularization 3 and 32 borders per feature.
func NewObliviousBoosting(opts ...ObliviousOption) *ObliviousBoosting {
	o := &ObliviousBoosting{
		Iterations:   200,
		LearningRate: 0.1,
		Depth:        6,
		L2LeafReg:    3,
		BorderCount:  32,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *ObliviousBoosting) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	target, err := checkBinary(y)
	if err != nil {
		return err
	}
	o.NFeature = p
	n := len(X)

	// quantize once: bins[i][j] = number of borders below X[i][j], so
	// X[i][j] > Borders[j][b] exactly when bins[i][j] > b
	o.Borders = make([][]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		o.Borders[j] = stats.Quantiles(col, o.BorderCount+1)
	}
	bins := make([][]int, n)
	for i, row := range X {
		bins[i] = make([]int, p)
		for j, v := range row {
			bins[i][j] = sort.SearchFloat64s(o.Borders[j], v)
		}
	}

	margin := make([]float64, n)
	o.Trees = make([]*ObliviousTree, 0, o.Iterations)
	for it := 0; it < o.Iterations; it++ {
		grad, hess := loss.LogLossGradHess(target, margin)
		tree, leafOf := o.grow(bins, grad, hess)
		for i := range margin {
			margin[i] += tree.Leaves[leafOf[i]]
		}
		o.Trees = append(o.Trees, tree)
	}
	log.Debug().Int("iterations", len(o.Trees)).Msg("oblivious boosting fitted")
	return nil
}

// grow picks, level by level, the (feature, border) pair that maximizes the
// Newton score summed over all current leaves.
func (o *ObliviousBoosting) grow(bins [][]int, grad, hess []float64) (*ObliviousTree, []int) {
	n := len(grad)
	leafOf := make([]int, n)
	tree := &ObliviousTree{}
	l2 := o.L2LeafReg

	for level := 0; level < o.Depth; level++ {
		nLeaves := 1 << level
		bestScore, bestF, bestB := 0.0, -1, -1
		for j, borders := range o.Borders {
			nb := len(borders)
			if nb == 0 {
				continue
			}
			// histogram per (leaf, bin); bin ranges over 0..nb
			hg := make([]float64, nLeaves*(nb+1))
			hh := make([]float64, nLeaves*(nb+1))
			for i := 0; i < n; i++ {
				k := leafOf[i]*(nb+1) + bins[i][j]
				hg[k] += grad[i]
				hh[k] += hess[i]
			}
			totG := make([]float64, nLeaves)
			totH := make([]float64, nLeaves)
			for l := 0; l < nLeaves; l++ {
				for b := 0; b <= nb; b++ {
					totG[l] += hg[l*(nb+1)+b]
					totH[l] += hh[l*(nb+1)+b]
				}
			}
			leftG := make([]float64, nLeaves)
			leftH := make([]float64, nLeaves)
			for b := 0; b < nb; b++ {
				score := 0.0
				for l := 0; l < nLeaves; l++ {
					leftG[l] += hg[l*(nb+1)+b]
					leftH[l] += hh[l*(nb+1)+b]
					rg, rh := totG[l]-leftG[l], totH[l]-leftH[l]
					score += leftG[l]*leftG[l]/(leftH[l]+l2) + rg*rg/(rh+l2)
				}
				if bestF < 0 || score > bestScore {
					bestScore, bestF, bestB = score, j, b
				}
			}
		}
		if bestF < 0 {
			break
		}
		tree.Features = append(tree.Features, bestF)
		tree.Borders = append(tree.Borders, o.Borders[bestF][bestB])
		for i := range leafOf {
			bit := 0
			if bins[i][bestF] > bestB {
				bit = 1
			}
			leafOf[i] = leafOf[i]<<1 | bit
		}
	}

	nLeaves := 1 << len(tree.Features)
	G := make([]float64, nLeaves)
	H := make([]float64, nLeaves)
	for i, l := range leafOf {
		G[l] += grad[i]
		H[l] += hess[i]
	}
	tree.Leaves = make([]float64, nLeaves)
	for l := range tree.Leaves {
		tree.Leaves[l] = -G[l] / (H[l] + l2) * o.LearningRate
	}
	return tree, leafOf
}

func (t *ObliviousTree) value(x []float64) float64 {
	idx := 0
	for d, f := range t.Features {
		idx <<= 1
		if x[f] > t.Borders[d] {
			idx |= 1
		}
	}
	return t.Leaves[idx]
}

// Margin returns the raw log-odds for each row.
func (o *ObliviousBoosting) Margin(X [][]float64) ([]float64, error) {
	if o.Trees == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, o.NFeature); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, x := range X {
		for _, t := range o.Trees {
			out[i] += t.value(x)
		}
	}
	return out, nil
}

func (o *ObliviousBoosting) PredictProba(X [][]float64) ([]float64, error) {
	m, err := o.Margin(X)
	if err != nil {
		return nil, err
	}
	for i := range m {
		m[i] = loss.Sigmoid(m[i])
	}
	return m, nil
}

func (o *ObliviousBoosting) Predict(X [][]float64) ([]int, error) {
	p, err := o.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return BinaryPredFromProba(p, 0.5), nil
}
