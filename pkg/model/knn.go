package model

import (
	"runtime"
	"sort"
	"sync"
)

// KNN classifies by majority vote of the K nearest training rows.
type KNN struct {
	K        int
	X        [][]float64
	Y        []int
	Classes  []int
	NFeature int
}

// NewKNN creates and returns a new KNN model.
func NewKNN(k int) *KNN {
	return &KNN{K: k}
}

// Fit trains the model by simply storing the training data and labels.
// This is the "lazy" part of a KNN model.
func (m *KNN) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	m.X = X
	m.Y = y
	m.Classes = sortedLabels(y)
	m.NFeature = p
	return nil
}

// PredictClassProba returns the vote fraction of each class among the K
// nearest neighbours, aligned with Classes. Rows are split across workers.
func (m *KNN) PredictClassProba(X [][]float64) ([][]float64, error) {
	if m.X == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, m.NFeature); err != nil {
		return nil, err
	}

	out := make([][]float64, len(X))
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, len(X))
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				out[i] = m.votes(X[i])
			}
		}(start, end)
	}

	wg.Wait()
	return out, nil
}

// Predict returns the majority class; ties go to the smaller label.
func (m *KNN) Predict(X [][]float64) ([]int, error) {
	probs, err := m.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i, p := range probs {
		out[i] = m.Classes[argmaxFloat(p)]
	}
	return out, nil
}

// PredictProba returns the share of neighbours labelled 1.
func (m *KNN) PredictProba(X [][]float64) ([]float64, error) {
	probs, err := m.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	pos := classIndex(1, m.Classes)
	out := make([]float64, len(X))
	for i, p := range probs {
		if pos >= 0 {
			out[i] = p[pos]
		}
	}
	return out, nil
}

// votes finds the K nearest neighbours of xi. Equal distances keep training
// order.
func (m *KNN) votes(xi []float64) []float64 {
	type pair struct {
		d float64
		j int
	}

	k := min(max(m.K, 1), len(m.X))
	nbrs := make([]pair, 0, k+1)

	for j, xj := range m.X {
		d := euclidSquared(xi, xj)
		if len(nbrs) < k {
			nbrs = append(nbrs, pair{d: d, j: j})
			sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		} else if d < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = pair{d: d, j: j}
			sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		}
	}

	counts := make([]int, len(m.Classes))
	for _, p := range nbrs {
		counts[classIndex(m.Y[p.j], m.Classes)]++
	}
	return countsToProbas(counts)
}

// euclidSquared computes the squared Euclidean distance between two vectors.
// Squared distance preserves the neighbour order without the square root.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
