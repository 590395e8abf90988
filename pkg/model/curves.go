package model

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// CurveData holds the ROC curve with its area and the precision-recall
// curve of one set of scores.
type CurveData struct {
	FPR       []float64
	TPR       []float64
	AUC       float64
	Precision []float64
	Recall    []float64
}

// Curves computes ROC and precision-recall curves for P(y=1) scores. It
// reports false when proba is nil (the model gave no probabilities) or when
// yTrue holds a single class, since neither curve is defined then.
func Curves(yTrue []int, proba []float64) (*CurveData, bool) {
	if proba == nil || len(proba) != len(yTrue) {
		return nil, false
	}
	pos := 0
	for _, v := range yTrue {
		if v == 1 {
			pos++
		}
	}
	if pos == 0 || pos == len(yTrue) {
		return nil, false
	}

	// stat.ROC wants scores in ascending order
	order := make([]int, len(proba))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return proba[order[a]] < proba[order[b]] })
	scores := make([]float64, len(order))
	classes := make([]bool, len(order))
	for k, i := range order {
		scores[k] = proba[i]
		classes[k] = yTrue[i] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	if len(fpr) == 0 || fpr[0] != 0 || tpr[0] != 0 {
		fpr = append([]float64{0}, fpr...)
		tpr = append([]float64{0}, tpr...)
	}
	if last := len(fpr) - 1; fpr[last] != 1 || tpr[last] != 1 {
		fpr = append(fpr, 1)
		tpr = append(tpr, 1)
	}
	cd := &CurveData{FPR: fpr, TPR: tpr, AUC: integrate.Trapezoidal(fpr, tpr)}
	cd.Precision, cd.Recall = precisionRecall(scores, classes, pos)
	return cd, true
}

// precisionRecall walks the ascending scores from the top, one point per
// distinct threshold. Points come out in increasing threshold order and end
// with (precision 1, recall 0).
func precisionRecall(scores []float64, classes []bool, pos int) (precision, recall []float64) {
	tp, fp := 0, 0
	for k := len(scores) - 1; k >= 0; k-- {
		if classes[k] {
			tp++
		} else {
			fp++
		}
		if k > 0 && scores[k-1] == scores[k] {
			continue
		}
		precision = append(precision, float64(tp)/float64(tp+fp))
		recall = append(recall, float64(tp)/float64(pos))
	}
	for i, j := 0, len(precision)-1; i < j; i, j = i+1, j-1 {
		precision[i], precision[j] = precision[j], precision[i]
		recall[i], recall[j] = recall[j], recall[i]
	}
	return append(precision, 1), append(recall, 0)
}
