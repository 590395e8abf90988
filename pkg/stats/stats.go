// Package stats provides descriptive statistics and the min-max scaler used
// by the preprocessing pipeline.
package stats

import (
	"math"
	"sort"
)

// Variance computes the population variance of a slice in a single pass.
func Variance(x []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	sum, sumSq := 0.0, 0.0
	for _, v := range x {
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	return math.Max((sumSq/n)-(mean*mean), 0)
}

// MatrixVariance is the variance over every element of X.
func MatrixVariance(X [][]float64) float64 {
	flat := make([]float64, 0, len(X)*len(X[0]))
	for _, row := range X {
		flat = append(flat, row...)
	}
	return Variance(flat)
}

// MinMax returns the minimum and maximum values in the slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	min, max := x[0], x[0]
	for i := 1; i < len(x); i++ {
		if x[i] < min {
			min = x[i]
		} else if x[i] > max {
			max = x[i]
		}
	}
	return min, max
}

// Quantiles returns ascending cut points c such that "x <= c" splits x into
// at most n roughly equal-frequency bins. Columns with few distinct values
// get the midpoints between neighbours instead.
func Quantiles(x []float64, n int) []float64 {
	if n < 2 || len(x) == 0 {
		return nil
	}
	cp := make([]float64, len(x))
	copy(cp, x)
	sort.Float64s(cp)

	distinct := cp[:1:1]
	for _, v := range cp[1:] {
		if v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) <= n {
		out := make([]float64, 0, len(distinct)-1)
		for i := 1; i < len(distinct); i++ {
			out = append(out, (distinct[i-1]+distinct[i])/2)
		}
		return out
	}

	var out []float64
	last := cp[len(cp)-1]
	for b := 1; b < n; b++ {
		v := cp[b*len(cp)/n]
		if v >= last {
			break
		}
		if len(out) == 0 || v > out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
