package model

import (
	"runtime"
	"sync"

	"github.com/nameisahmedh/strokeprediction/pkg/loss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression (binary) with sigmoid link and L2 penalty, fitted by
// L-BFGS. The objective is 0.5*||W||^2 + C * sum of log-losses; the bias is
// not penalized.
type LogisticRegression struct {
	W       []float64 // weights
	B       float64   // bias
	C       float64   // inverse regularization strength
	MaxIter int

	logger *zerolog.Logger
}

// LogisticOption functional config for LogisticRegression
type LogisticOption func(*LogisticRegression)

func WithC(c float64) LogisticOption   { return func(m *LogisticRegression) { m.C = c } }
func WithMaxIter(n int) LogisticOption { return func(m *LogisticRegression) { m.MaxIter = n } }

// NewLogisticRegression returns a model with C=1 and at most 200 L-BFGS
// iterations.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	m := &LogisticRegression{C: 1, MaxIter: 200}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetLogger replaces the logger used for convergence warnings.
func (m *LogisticRegression) SetLogger(l zerolog.Logger) { m.logger = &l }

func (m *LogisticRegression) log() *zerolog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return &log.Logger
}

// Fit minimizes the penalized log-loss. Reaching MaxIter is not an error:
// the last iterate is kept and a warning is logged.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	target, err := checkBinary(y)
	if err != nil {
		return err
	}

	// params = [w_0 .. w_{p-1}, b]
	margins := func(params []float64, z []float64) {
		for i, row := range X {
			s := params[p]
			for j, v := range row {
				s += params[j] * v
			}
			z[i] = s
		}
	}
	z := make([]float64, len(X))

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			margins(params, z)
			f := 0.0
			for j := 0; j < p; j++ {
				f += 0.5 * params[j] * params[j]
			}
			for i, zi := range z {
				// log(1+e^z) - y*z, stable for large |z|
				f += m.C * (loss.Softplus(zi) - target[i]*zi)
			}
			return f
		},
		Grad: func(grad, params []float64) {
			margins(params, z)
			for j := 0; j < p; j++ {
				grad[j] = params[j]
			}
			grad[p] = 0
			for i, row := range X {
				d := m.C * (loss.Sigmoid(z[i]) - target[i])
				for j, v := range row {
					grad[j] += d * v
				}
				grad[p] += d
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   m.MaxIter,
		GradientThreshold: 1e-4,
	}
	res, err := optimize.Minimize(problem, make([]float64, p+1), settings, &optimize.LBFGS{})
	if res == nil {
		return err
	}
	if err != nil || res.Status == optimize.IterationLimit {
		m.log().Warn().
			Int("iterations", res.MajorIterations).
			Str("status", res.Status.String()).
			AnErr("reason", err).
			Msg("lbfgs failed to converge; increase the number of iterations")
	}

	m.W = append([]float64(nil), res.X[:p]...)
	m.B = res.X[p]
	return nil
}

// PredictProba returns the probability scores (between 0 and 1) for each input row in X.
// Rows are split across GOMAXPROCS workers.
func (m *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	if m.W == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, len(m.W)); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
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
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				sum := m.B
				for j, v := range X[i] {
					sum += m.W[j] * v
				}
				out[i] = loss.Sigmoid(sum)
			}
		}(start, end)
	}
	wg.Wait()
	return out, nil
}

// Predict returns the class labels (0 or 1) based on a 0.5 probability threshold.
func (m *LogisticRegression) Predict(X [][]float64) ([]int, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return BinaryPredFromProba(proba, 0.5), nil
}
