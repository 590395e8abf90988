package model

import "sort"

// Accuracy is the share of rows where prediction equals truth. Empty input
// scores 0.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// Labels returns the sorted union of the labels in yTrue and yPred.
func Labels(yTrue, yPred []int) []int {
	all := make([]int, 0, len(yTrue)+len(yPred))
	all = append(all, yTrue...)
	all = append(all, yPred...)
	return sortedLabels(all)
}

// Confusion is a square count matrix; Matrix[a][p] counts rows whose actual
// label is Labels[a] and predicted label is Labels[p].
type Confusion struct {
	Labels []int
	Matrix [][]int
}

// ConfusionMatrix counts (actual, predicted) pairs over Labels(yTrue, yPred).
func ConfusionMatrix(yTrue, yPred []int) Confusion {
	labels := Labels(yTrue, yPred)
	m := make([][]int, len(labels))
	for i := range m {
		m[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		a := sort.SearchInts(labels, yTrue[i])
		p := sort.SearchInts(labels, yPred[i])
		m[a][p]++
	}
	return Confusion{Labels: labels, Matrix: m}
}

// PrecisionRecallF1 returns macro-averaged precision, recall and F1 over
// Labels(yTrue, yPred). A per-label ratio with a zero denominator counts as 0.
func PrecisionRecallF1(yTrue, yPred []int) (prec, rec, f1 float64) {
	cm := ConfusionMatrix(yTrue, yPred)
	k := len(cm.Labels)
	if k == 0 {
		return 0, 0, 0
	}
	for c := 0; c < k; c++ {
		tp := cm.Matrix[c][c]
		predicted, actual := 0, 0
		for o := 0; o < k; o++ {
			predicted += cm.Matrix[o][c]
			actual += cm.Matrix[c][o]
		}
		p, r := 0.0, 0.0
		if predicted > 0 {
			p = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			r = float64(tp) / float64(actual)
		}
		prec += p
		rec += r
		if p+r > 0 {
			f1 += 2 * p * r / (p + r)
		}
	}
	n := float64(k)
	return prec / n, rec / n, f1 / n
}
