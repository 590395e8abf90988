package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GaussianNB models each feature as an independent normal per class.
type GaussianNB struct {
	VarSmoothing float64 // share of the largest feature variance added to every variance

	Classes  []int
	Priors   []float64
	Theta    [][]float64 // per-class feature means
	Var      [][]float64 // per-class feature variances, smoothed
	NFeature int
}

// NewGaussianNB returns a classifier with var smoothing 1e-9.
func NewGaussianNB() *GaussianNB { return &GaussianNB{VarSmoothing: 1e-9} }

func (nb *GaussianNB) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	nb.NFeature = p
	nb.Classes = sortedLabels(y)
	nc := len(nb.Classes)

	col := make([]float64, len(X))
	maxVar := 0.0
	for j := 0; j < p; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		_, v := stat.PopMeanVariance(col, nil)
		maxVar = math.Max(maxVar, v)
	}
	eps := nb.VarSmoothing * maxVar

	byClass := make([][]int, nc)
	for i, lab := range y {
		c := classIndex(lab, nb.Classes)
		byClass[c] = append(byClass[c], i)
	}

	nb.Priors = make([]float64, nc)
	nb.Theta = make([][]float64, nc)
	nb.Var = make([][]float64, nc)
	for c, idx := range byClass {
		nb.Priors[c] = float64(len(idx)) / float64(len(X))
		nb.Theta[c] = make([]float64, p)
		nb.Var[c] = make([]float64, p)
		vals := make([]float64, len(idx))
		for j := 0; j < p; j++ {
			for k, i := range idx {
				vals[k] = X[i][j]
			}
			m, v := stat.PopMeanVariance(vals, nil)
			nb.Theta[c][j] = m
			nb.Var[c][j] = v + eps
		}
	}
	return nil
}

// jointLogLikelihood returns log P(c) + log P(x|c) for every class.
func (nb *GaussianNB) jointLogLikelihood(x []float64) []float64 {
	out := make([]float64, len(nb.Classes))
	for c := range nb.Classes {
		s := math.Log(nb.Priors[c])
		for j, v := range x {
			va := nb.Var[c][j]
			if va <= 0 {
				// zero variance everywhere: the feature carries no density
				continue
			}
			d := v - nb.Theta[c][j]
			s -= 0.5*math.Log(2*math.Pi*va) + 0.5*d*d/va
		}
		out[c] = s
	}
	return out
}

// PredictClassProba returns normalized class posteriors aligned with Classes.
func (nb *GaussianNB) PredictClassProba(X [][]float64) ([][]float64, error) {
	if nb.Classes == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, nb.NFeature); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		jll := nb.jointLogLikelihood(x)
		norm := floats.LogSumExp(jll)
		for c := range jll {
			jll[c] = math.Exp(jll[c] - norm)
		}
		out[i] = jll
	}
	return out, nil
}

func (nb *GaussianNB) Predict(X [][]float64) ([]int, error) {
	probs, err := nb.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i, p := range probs {
		out[i] = nb.Classes[argmaxFloat(p)]
	}
	return out, nil
}

func (nb *GaussianNB) PredictProba(X [][]float64) ([]float64, error) {
	probs, err := nb.PredictClassProba(X)
	if err != nil {
		return nil, err
	}
	pos := classIndex(1, nb.Classes)
	out := make([]float64, len(X))
	for i, p := range probs {
		if pos >= 0 {
			out[i] = p[pos]
		}
	}
	return out, nil
}
