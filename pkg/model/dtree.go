package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => all features, >0 => features sampled per node
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	// Fitted state
	Root     *TreeNode
	Classes  []int // sorted class labels, aligned with leaf probabilities
	NFeature int

	serial bool // search features sequentially (set when run inside a forest)
}

// TreeNode is a node of a fitted tree. Internal nodes send x[Feature] <=
// Threshold to Left.
type TreeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	N         int
	Probas    []float64
}

// Option functional config
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		RandomState:     42,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API
// ---------------------------

// Fit trains the decision tree on X (n x p) and y (n labels).
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	if _, err := checkXY(X, y); err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fitIndices(X, y, idx, sortedLabels(y))
}

// fitIndices trains on the rows named by idx (repeats allowed, as produced
// by bootstrap sampling). classes fixes the probability layout so every
// tree in a forest agrees on it.
func (t *DecisionTreeClassifier) fitIndices(X [][]float64, y []int, idx []int, classes []int) error {
	if len(idx) == 0 {
		return errors.New("dtree: no samples")
	}
	t.Classes = classes
	t.NFeature = len(X[0])

	impurity := giniFromCounts
	if t.Criterion == "entropy" {
		impurity = entropyFromCounts
	}
	rnd := rand.New(rand.NewSource(t.RandomState))
	t.Root = t.buildNode(X, y, idx, 0, impurity, rnd)
	return nil
}

// Predict returns the most probable class per row.
func (t *DecisionTreeClassifier) Predict(X [][]float64) ([]int, error) {
	probs, err := t.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i, p := range probs {
		out[i] = t.Classes[argmaxFloat(p)]
	}
	return out, nil
}

// PredictClassProba returns the per-class probability vectors for rows in
// X, aligned with Classes.
func (t *DecisionTreeClassifier) PredictClassProba(X [][]float64) ([][]float64, error) {
	if t.Root == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, t.NFeature); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = t.leaf(X[i]).Probas
	}
	return out, nil
}

// PredictProba returns p(y=1) per row.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) ([]float64, error) {
	probs, err := t.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	pos := classIndex(1, t.Classes)
	out := make([]float64, len(X))
	for i, p := range probs {
		if pos >= 0 {
			out[i] = p[pos]
		}
	}
	return out, nil
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

// splitResult holds the best split found for a single feature.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
}

func (t *DecisionTreeClassifier) buildNode(X [][]float64, y []int, idx []int, depth int, impurity func([]int) float64, rnd *rand.Rand) *TreeNode {
	nClasses := len(t.Classes)
	counts := countsFromIndices(y, idx, nClasses, t.Classes)
	node := &TreeNode{N: len(idx), Probas: countsToProbas(counts)}

	// make leaf if pure, too few samples or depth reached
	if isPure(counts) || len(idx) < t.MinSamplesSplit || len(idx) < 2*t.MinSamplesLeaf ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		node.Leaf = true
		return node
	}

	// determine features to try
	p := t.NFeature
	featIndices := make([]int, p)
	for j := 0; j < p; j++ {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		for i := 0; i < t.MaxFeatures; i++ {
			j := i + rnd.Intn(p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	parentImpurity := impurity(counts)
	results := make([]splitResult, len(featIndices))
	if t.serial || len(featIndices) == 1 {
		for k, f := range featIndices {
			results[k] = t.bestSplitForFeature(X, y, idx, f, parentImpurity, impurity)
		}
	} else {
		var wg sync.WaitGroup
		for k, f := range featIndices {
			wg.Add(1)
			go func(k, f int) {
				defer wg.Done()
				results[k] = t.bestSplitForFeature(X, y, idx, f, parentImpurity, impurity)
			}(k, f)
		}
		wg.Wait()
	}

	// results are scanned in feature order so ties resolve the same way
	// on every run
	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature == -1 || best.gain <= t.MinImpurityDecrease {
		node.Leaf = true
		return node
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = t.buildNode(X, y, leftIdx, depth+1, impurity, rnd)
	node.Right = t.buildNode(X, y, rightIdx, depth+1, impurity, rnd)
	return node
}

// bestSplitForFeature sorts the node's samples on feature f and scans every
// boundary between distinct values, moving one sample at a time from the
// right child to the left.
func (t *DecisionTreeClassifier) bestSplitForFeature(X [][]float64, y []int, idx []int, f int, parentImpurity float64, impurity func([]int) float64) splitResult {
	result := splitResult{feature: -1}
	nClasses := len(t.Classes)

	sorted := append([]int(nil), idx...)
	sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

	left := make([]int, nClasses)
	right := countsFromIndices(y, sorted, nClasses, t.Classes)
	n := float64(len(sorted))
	minLeaf := max(t.MinSamplesLeaf, 1)

	for s := 1; s < len(sorted); s++ {
		ci := classIndex(y[sorted[s-1]], t.Classes)
		left[ci]++
		right[ci]--

		lo, hi := X[sorted[s-1]][f], X[sorted[s]][f]
		if lo == hi || s < minLeaf || len(sorted)-s < minLeaf {
			continue
		}
		nl := float64(s)
		weighted := nl/n*impurity(left) + (n-nl)/n*impurity(right)
		gain := parentImpurity - weighted
		if gain > result.gain {
			result = splitResult{gain: gain, feature: f, threshold: (lo + hi) / 2.0}
		}
	}
	return result
}

func (t *DecisionTreeClassifier) leaf(x []float64) *TreeNode {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func countsFromIndices(y []int, idx []int, nClasses int, classes []int) []int {
	counts := make([]int, nClasses)
	for _, ii := range idx {
		counts[classIndex(y[ii], classes)]++
	}
	return counts
}

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}

// classIndex returns the index of label in the sorted classes slice, or -1.
func classIndex(label int, classes []int) int {
	i := sort.SearchInts(classes, label)
	if i < len(classes) && classes[i] == label {
		return i
	}
	return -1
}

// sortedLabels returns the distinct labels of y in ascending order.
func sortedLabels(y []int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
