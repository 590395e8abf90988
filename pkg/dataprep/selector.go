package dataprep

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrNegative is returned when chi-squared scoring sees a negative value.
	ErrNegative = errors.New("dataprep: chi2 requires non-negative features")
	// ErrSelectorNotFitted is returned by Transform before Fit.
	ErrSelectorNotFitted = errors.New("dataprep: selector is not fitted")
)

// Chi2 computes chi-squared statistics and p-values between each
// non-negative feature column of X and the class labels y. Features are
// treated as counts: observed per class is the column sum within that class,
// expected is the class share times the total column sum.
func Chi2(X [][]float64, y []int) (scores, pvalues []float64, err error) {
	n := len(X)
	if n == 0 || len(y) != n {
		return nil, nil, errors.New("dataprep: X and y length mismatch")
	}
	p := len(X[0])
	if p == 0 {
		return nil, nil, errors.New("dataprep: X has no features")
	}

	classes := sortedClasses(y)
	// one-hot label matrix; a single class still gets two columns so the
	// statistic is defined
	nc := max(len(classes), 2)
	Y := mat.NewDense(n, nc, nil)
	for i, lab := range y {
		Y.Set(i, sort.SearchInts(classes, lab), 1)
	}

	flat := make([]float64, 0, n*p)
	for i, row := range X {
		if len(row) != p {
			return nil, nil, fmt.Errorf("dataprep: row %d has %d features, want %d", i, len(row), p)
		}
		for _, v := range row {
			if v < 0 {
				return nil, nil, ErrNegative
			}
		}
		flat = append(flat, row...)
	}
	Xm := mat.NewDense(n, p, flat)

	var observed mat.Dense
	observed.Mul(Y.T(), Xm)

	featureCount := make([]float64, p)
	for j := 0; j < p; j++ {
		featureCount[j] = mat.Sum(Xm.ColView(j))
	}
	classProb := make([]float64, nc)
	for c := 0; c < nc; c++ {
		classProb[c] = mat.Sum(Y.ColView(c)) / float64(n)
	}

	dist := distuv.ChiSquared{K: float64(nc - 1)}
	scores = make([]float64, p)
	pvalues = make([]float64, p)
	for j := 0; j < p; j++ {
		s := 0.0
		for c := 0; c < nc; c++ {
			exp := classProb[c] * featureCount[j]
			d := observed.At(c, j) - exp
			s += d * d / exp
		}
		scores[j] = s
		pvalues[j] = dist.Survival(s)
	}
	return scores, pvalues, nil
}

// SelectKBest keeps the K features with the highest chi-squared score.
type SelectKBest struct {
	K        int
	Scores   []float64
	PValues  []float64
	Selected []int // ascending column indices
}

func NewSelectKBest(k int) *SelectKBest { return &SelectKBest{K: k} }

// Fit scores every column of the non-negative matrix X against y and picks
// the top K. Undefined scores (all-zero columns) rank lowest; ties go to the
// later column.
func (s *SelectKBest) Fit(X [][]float64, y []int) error {
	scores, pvalues, err := Chi2(X, y)
	if err != nil {
		return err
	}
	p := len(scores)
	if s.K <= 0 || s.K > p {
		return fmt.Errorf("dataprep: k=%d out of range for %d features", s.K, p)
	}
	s.Scores, s.PValues = scores, pvalues

	order := make([]int, p)
	for j := range order {
		order[j] = j
	}
	rank := func(j int) float64 {
		if math.IsNaN(scores[j]) {
			return -math.MaxFloat64
		}
		return scores[j]
	}
	sort.SliceStable(order, func(a, b int) bool { return rank(order[a]) < rank(order[b]) })

	s.Selected = append([]int(nil), order[p-s.K:]...)
	sort.Ints(s.Selected)
	return nil
}

// Transform keeps the selected columns of X.
func (s *SelectKBest) Transform(X [][]float64) ([][]float64, error) {
	if s.Selected == nil {
		return nil, ErrSelectorNotFitted
	}
	width := len(s.Scores)
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("dataprep: row %d has %d features, selector fitted on %d", i, len(row), width)
		}
	}
	return FeatureSelect(X, s.Selected), nil
}

func sortedClasses(y []int) []int {
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
