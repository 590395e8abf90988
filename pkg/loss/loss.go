// Package loss holds the link and loss functions shared by the binary
// classifiers.
package loss

import "math"

// Sigmoid maps a margin to a probability.
func Sigmoid(x float64) float64 {
	// split on sign so exp never overflows
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Softplus returns log(1+e^x) without overflow.
func Softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// Logit is the inverse of Sigmoid, clamped away from 0 and 1.
func Logit(p float64) float64 {
	p = clamp(p)
	return math.Log(p / (1 - p))
}

// BCE returns the mean binary cross-entropy of probabilities yPred against
// 0/1 targets yTrue and its gradient with respect to each prediction's
// margin (p - y, scaled by 1/n).
func BCE(yTrue, yPred []float64) (float64, []float64) {
	n := len(yTrue)
	s := 0.0
	grad := make([]float64, n)

	for i := 0; i < n; i++ {
		p := clamp(yPred[i])
		y := yTrue[i]
		s += -(y*math.Log(p) + (1-y)*math.Log(1-p))
		grad[i] = (p - y) / float64(n)
	}
	return s / float64(n), grad
}

// LogLossGradHess returns per-sample first and second derivatives of the
// logistic loss with respect to the raw margin, as used by Newton boosting.
func LogLossGradHess(yTrue, margin []float64) (grad, hess []float64) {
	grad = make([]float64, len(yTrue))
	hess = make([]float64, len(yTrue))
	for i, m := range margin {
		p := Sigmoid(m)
		grad[i] = p - yTrue[i]
		hess[i] = math.Max(p*(1-p), 1e-16)
	}
	return grad, hess
}

func clamp(p float64) float64 { return math.Min(math.Max(p, 1e-12), 1-1e-12) }
