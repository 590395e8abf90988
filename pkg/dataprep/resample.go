package dataprep

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// ErrSingleClass is returned when oversampling is asked to balance a label
// vector that holds only one class.
var ErrSingleClass = errors.New("dataprep: resampling needs at least two classes")

// SMOTE synthesizes minority-class rows by interpolating between a sample
// and one of its nearest same-class neighbours until every class matches
// the majority count.
type SMOTE struct {
	KNeighbors  int
	RandomState int64
}

// SMOTEOption functional config for SMOTE
type SMOTEOption func(*SMOTE)

func WithKNeighbors(k int) SMOTEOption     { return func(s *SMOTE) { s.KNeighbors = k } }
func WithSMOTESeed(seed int64) SMOTEOption { return func(s *SMOTE) { s.RandomState = seed } }

// NewSMOTE returns an oversampler with 5 neighbours and seed 42.
func NewSMOTE(opts ...SMOTEOption) *SMOTE {
	s := &SMOTE{KNeighbors: 5, RandomState: 42}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FitResample returns X and y with synthetic rows appended after the
// originals. Input slices are not modified.
func (s *SMOTE) FitResample(X [][]float64, y []int) ([][]float64, []int, error) {
	if len(X) != len(y) {
		return nil, nil, errors.New("dataprep: X and y length mismatch")
	}
	byClass := map[int][]int{}
	for i, lab := range y {
		byClass[lab] = append(byClass[lab], i)
	}
	if len(byClass) < 2 {
		return nil, nil, ErrSingleClass
	}

	classes := make([]int, 0, len(byClass))
	majority := 0
	for c, idx := range byClass {
		classes = append(classes, c)
		majority = max(majority, len(idx))
	}
	sort.Ints(classes)

	outX := make([][]float64, len(X), len(X)*2)
	copy(outX, X)
	outY := make([]int, len(y), len(y)*2)
	copy(outY, y)

	rnd := rand.New(rand.NewSource(s.RandomState))
	for _, c := range classes {
		idx := byClass[c]
		need := majority - len(idx)
		if need == 0 {
			continue
		}
		nbrs := s.neighbours(X, idx)
		for n := 0; n < need; n++ {
			a := rnd.Intn(len(idx))
			base := X[idx[a]]
			if len(nbrs[a]) == 0 {
				// a lone sample can only be duplicated
				outX = append(outX, append([]float64(nil), base...))
				outY = append(outY, c)
				continue
			}
			other := X[nbrs[a][rnd.Intn(len(nbrs[a]))]]
			gap := rnd.Float64()
			row := make([]float64, len(base))
			for j := range base {
				row[j] = base[j] + gap*(other[j]-base[j])
			}
			outX = append(outX, row)
			outY = append(outY, c)
		}
		log.Debug().Int("class", c).Int("original", len(idx)).Int("synthetic", need).Msg("smote oversampled class")
	}
	return outX, outY, nil
}

// neighbours returns, for each member of idx, the positions in X of its k
// nearest other members.
func (s *SMOTE) neighbours(X [][]float64, idx []int) [][]int {
	k := min(s.KNeighbors, len(idx)-1)
	out := make([][]int, len(idx))
	if k <= 0 {
		return out
	}
	type cand struct {
		d float64
		i int
	}
	for a, ia := range idx {
		cands := make([]cand, 0, len(idx)-1)
		for _, ib := range idx {
			if ib == ia {
				continue
			}
			cands = append(cands, cand{d: floats.Distance(X[ia], X[ib], 2), i: ib})
		}
		sort.SliceStable(cands, func(p, q int) bool { return cands[p].d < cands[q].d })
		out[a] = make([]int, k)
		for n := 0; n < k; n++ {
			out[a][n] = cands[n].i
		}
	}
	return out
}
