package model

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// SqrtFeatures asks the forest to sample sqrt(p) features at each split.
const SqrtFeatures = -1

// RandomForest for classification
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // 0 => all features, SqrtFeatures => sqrt(p)
	Bootstrap       bool
	RandomState     int64

	// Fitted state
	Trees    []*DecisionTreeClassifier
	Classes  []int
	NFeature int
}

// RandomForestOption functional config for RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestSeed(seed int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxFeatures = k }
}

// NewRandomForest initializes the forest with 100 bootstrapped trees, sqrt
// feature sampling and seed 42.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MaxFeatures:     SqrtFeatures,
		Bootstrap:       true,
		RandomState:     42,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the random forest. Trees are grown concurrently, each from its
// own seeded generator, so the fitted forest does not depend on scheduling.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	n := len(X)
	rf.Classes = sortedLabels(y)
	rf.NFeature = p

	maxFeatures := rf.MaxFeatures
	if maxFeatures == SqrtFeatures {
		maxFeatures = max(1, int(math.Sqrt(float64(p))))
	}

	rf.Trees = make([]*DecisionTreeClassifier, rf.NEstimators)
	var wg sync.WaitGroup
	errCh := make(chan error, rf.NEstimators)
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))

	for i := 0; i < rf.NEstimators; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			treeRand := rand.New(rand.NewSource(rf.RandomState + int64(idx)))

			// Bootstrap sampling: an index slice, not a copy of the data.
			sampleIndices := make([]int, n)
			for j := 0; j < n; j++ {
				if rf.Bootstrap {
					sampleIndices[j] = treeRand.Intn(n)
				} else {
					sampleIndices[j] = j
				}
			}

			tree := NewDecisionTreeClassifier(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMaxFeatures(maxFeatures),
				WithRandomState(treeRand.Int63()),
			)
			tree.serial = true
			if err := tree.fitIndices(X, y, sampleIndices, rf.Classes); err != nil {
				errCh <- err
				return
			}
			rf.Trees[idx] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// PredictClassProba averages the trees' class probabilities.
func (rf *RandomForest) PredictClassProba(X [][]float64) ([][]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, rf.NFeature); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		acc := make([]float64, len(rf.Classes))
		for _, t := range rf.Trees {
			for c, v := range t.leaf(x).Probas {
				acc[c] += v
			}
		}
		for c := range acc {
			acc[c] /= float64(len(rf.Trees))
		}
		out[i] = acc
	}
	return out, nil
}

// Predict returns the class with the highest mean probability.
func (rf *RandomForest) Predict(X [][]float64) ([]int, error) {
	probs, err := rf.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i, p := range probs {
		out[i] = rf.Classes[argmaxFloat(p)]
	}
	return out, nil
}

// PredictProba returns the mean p(y=1) across trees.
func (rf *RandomForest) PredictProba(X [][]float64) ([]float64, error) {
	probs, err := rf.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	pos := classIndex(1, rf.Classes)
	out := make([]float64, len(X))
	for i, p := range probs {
		if pos >= 0 {
			out[i] = p[pos]
		}
	}
	return out, nil
}
