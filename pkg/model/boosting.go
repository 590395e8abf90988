//go:build !noboost

package model

import (
	"sort"
	"sync"

	"github.com/nameisahmedh/strokeprediction/pkg/loss"
	"github.com/rs/zerolog/log"
)

// GradientBoosting is a second-order gradient boosted tree ensemble for the
// logistic loss. Trees grow level by level to MaxDepth with exact greedy
// splits over presorted feature columns.
type GradientBoosting struct {
	NRounds        int
	Eta            float64
	MaxDepth       int
	Lambda         float64 // L2 penalty on leaf weights
	MinChildWeight float64 // minimum hessian sum per child
	BaseScore      float64

	Trees    []*BoostTree
	NFeature int
}

// BoostTree is a fitted regression tree stored as a flat node slice; node 0
// is the root.
type BoostTree struct {
	Nodes []BoostNode
}

// BoostNode sends x[Feature] <= Threshold to Left. Leaf nodes carry the
// margin contribution already scaled by the learning rate.
type BoostNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Weight    float64
}

// BoostOption functional config for GradientBoosting
type BoostOption func(*GradientBoosting)

func WithRounds(n int) BoostOption       { return func(g *GradientBoosting) { g.NRounds = n } }
func WithEta(eta float64) BoostOption    { return func(g *GradientBoosting) { g.Eta = eta } }
func WithBoostDepth(d int) BoostOption   { return func(g *GradientBoosting) { g.MaxDepth = d } }
func WithLambda(l float64) BoostOption   { return func(g *GradientBoosting) { g.Lambda = l } }
func WithMinChild(w float64) BoostOption { return func(g *GradientBoosting) { g.MinChildWeight = w } }

// NewGradientBoosting returns 100 rounds of depth-6 trees with eta 0.3,
// lambda 1 and min child weight 1.
func NewGradientBoosting(opts ...BoostOption) *GradientBoosting {
	g := &GradientBoosting{
		NRounds:        100,
		Eta:            0.3,
		MaxDepth:       6,
		Lambda:         1,
		MinChildWeight: 1,
		BaseScore:      0.5,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GradientBoosting) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	target, err := checkBinary(y)
	if err != nil {
		return err
	}
	g.NFeature = p
	n := len(X)

	sorted := make([][]int, p)
	for j := 0; j < p; j++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return X[idx[a]][j] < X[idx[b]][j] })
		sorted[j] = idx
	}

	margin := make([]float64, n)
	base := loss.Logit(g.BaseScore)
	for i := range margin {
		margin[i] = base
	}

	g.Trees = make([]*BoostTree, 0, g.NRounds)
	for r := 0; r < g.NRounds; r++ {
		grad, hess := loss.LogLossGradHess(target, margin)
		tree, pos := g.grow(X, sorted, grad, hess)
		for i := range margin {
			margin[i] += tree.Nodes[pos[i]].Weight
		}
		g.Trees = append(g.Trees, tree)
	}
	log.Debug().Int("rounds", len(g.Trees)).Msg("gradient boosting fitted")
	return nil
}

type levelSplit struct {
	gain      float64
	feature   int
	threshold float64
	gl, hl    float64
}

// grow builds one tree and returns it with the leaf index of every sample.
func (g *GradientBoosting) grow(X [][]float64, sorted [][]int, grad, hess []float64) (*BoostTree, []int) {
	n := len(grad)
	pos := make([]int, n)
	G, H := 0.0, 0.0
	for i := 0; i < n; i++ {
		G += grad[i]
		H += hess[i]
	}
	sumG, sumH := []float64{G}, []float64{H}
	tree := &BoostTree{Nodes: []BoostNode{{Leaf: true}}}
	frontier := []int{0}

	for depth := 0; depth < g.MaxDepth && len(frontier) > 0; depth++ {
		slot := make([]int, len(tree.Nodes))
		for i := range slot {
			slot[i] = -1
		}
		for s, nd := range frontier {
			slot[nd] = s
		}

		// one goroutine per feature; results reduced in feature order
		perFeature := make([][]levelSplit, len(sorted))
		var wg sync.WaitGroup
		for j := range sorted {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				perFeature[j] = g.scanFeature(X, sorted[j], j, pos, slot, frontier, sumG, sumH, grad, hess)
			}(j)
		}
		wg.Wait()

		best := make([]levelSplit, len(frontier))
		for s := range best {
			best[s].feature = -1
		}
		for _, res := range perFeature {
			for s, r := range res {
				if r.feature >= 0 && r.gain > best[s].gain {
					best[s] = r
				}
			}
		}

		var next []int
		for s, nd := range frontier {
			b := best[s]
			if b.feature < 0 {
				continue
			}
			left, right := len(tree.Nodes), len(tree.Nodes)+1
			tree.Nodes = append(tree.Nodes, BoostNode{Leaf: true}, BoostNode{Leaf: true})
			sumG = append(sumG, b.gl, sumG[nd]-b.gl)
			sumH = append(sumH, b.hl, sumH[nd]-b.hl)
			tree.Nodes[nd] = BoostNode{Feature: b.feature, Threshold: b.threshold, Left: left, Right: right}
			next = append(next, left, right)
		}
		for i := range pos {
			nd := tree.Nodes[pos[i]]
			if !nd.Leaf {
				if X[i][nd.Feature] <= nd.Threshold {
					pos[i] = nd.Left
				} else {
					pos[i] = nd.Right
				}
			}
		}
		frontier = next
	}

	for k := range tree.Nodes {
		if tree.Nodes[k].Leaf {
			tree.Nodes[k].Weight = -sumG[k] / (sumH[k] + g.Lambda) * g.Eta
		}
	}
	return tree, pos
}

// scanFeature walks feature j in ascending order once, accumulating left
// sums for every frontier node, and returns the best split per node.
func (g *GradientBoosting) scanFeature(X [][]float64, order []int, j int, pos, slot, frontier []int, sumG, sumH, grad, hess []float64) []levelSplit {
	k := len(frontier)
	out := make([]levelSplit, k)
	gl := make([]float64, k)
	hl := make([]float64, k)
	last := make([]float64, k)
	seen := make([]bool, k)
	for s := range out {
		out[s].feature = -1
	}

	for _, i := range order {
		nd := pos[i]
		if nd >= len(slot) || slot[nd] < 0 {
			continue
		}
		s := slot[nd]
		v := X[i][j]
		if seen[s] && v != last[s] {
			G, H := sumG[nd], sumH[nd]
			gr, hr := G-gl[s], H-hl[s]
			if hl[s] >= g.MinChildWeight && hr >= g.MinChildWeight {
				gain := 0.5 * (gl[s]*gl[s]/(hl[s]+g.Lambda) + gr*gr/(hr+g.Lambda) - G*G/(H+g.Lambda))
				if gain > 1e-6 && gain > out[s].gain {
					out[s] = levelSplit{gain: gain, feature: j, threshold: (last[s] + v) / 2, gl: gl[s], hl: hl[s]}
				}
			}
		}
		gl[s] += grad[i]
		hl[s] += hess[i]
		last[s] = v
		seen[s] = true
	}
	return out
}

// Margin returns the raw log-odds for each row.
func (g *GradientBoosting) Margin(X [][]float64) ([]float64, error) {
	if g.Trees == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, g.NFeature); err != nil {
		return nil, err
	}
	base := loss.Logit(g.BaseScore)
	out := make([]float64, len(X))
	for i, x := range X {
		m := base
		for _, t := range g.Trees {
			m += t.value(x)
		}
		out[i] = m
	}
	return out, nil
}

func (g *GradientBoosting) PredictProba(X [][]float64) ([]float64, error) {
	m, err := g.Margin(X)
	if err != nil {
		return nil, err
	}
	for i := range m {
		m[i] = loss.Sigmoid(m[i])
	}
	return m, nil
}

func (g *GradientBoosting) Predict(X [][]float64) ([]int, error) {
	p, err := g.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return BinaryPredFromProba(p, 0.5), nil
}

func (t *BoostTree) value(x []float64) float64 {
	k := 0
	for !t.Nodes[k].Leaf {
		nd := t.Nodes[k]
		if x[nd.Feature] <= nd.Threshold {
			k = nd.Left
		} else {
			k = nd.Right
		}
	}
	return t.Nodes[k].Weight
}
