package model

import (
	"math"

	"github.com/nameisahmedh/strokeprediction/pkg/loss"
	"github.com/nameisahmedh/strokeprediction/pkg/stats"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/optimize"
)

// GammaScale selects gamma = 1 / (p * Var(X)) at fit time.
const GammaScale = 0

// SVM is a C-support vector classifier with an RBF kernel, trained by SMO
// with second-order working set selection. Probabilities come from a Platt
// sigmoid fitted on the training decision values.
type SVM struct {
	C         float64
	Gamma     float64 // GammaScale => derived from the training data
	Tol       float64
	MaxIter   int
	CacheRows int // kernel rows kept in memory during training

	// Fitted state
	SupportVectors [][]float64
	DualCoef       []float64 // alpha_i * y_i
	Rho            float64
	FitGamma       float64
	PlattA         float64
	PlattB         float64
	NFeature       int

	logger *zerolog.Logger
}

// SVMOption functional config for SVM
type SVMOption func(*SVM)

func WithSVMC(c float64) SVMOption    { return func(s *SVM) { s.C = c } }
func WithGamma(g float64) SVMOption   { return func(s *SVM) { s.Gamma = g } }
func WithSVMMaxIter(n int) SVMOption  { return func(s *SVM) { s.MaxIter = n } }
func WithKernelCache(n int) SVMOption { return func(s *SVM) { s.CacheRows = n } }

// NewSVM returns an RBF classifier with C=1 and gamma="scale".
func NewSVM(opts ...SVMOption) *SVM {
	s := &SVM{C: 1, Gamma: GammaScale, Tol: 1e-3, MaxIter: 1_000_000, CacheRows: 2048}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetLogger replaces the logger used for solver warnings.
func (s *SVM) SetLogger(l zerolog.Logger) { s.logger = &l }

func (s *SVM) log() *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return &log.Logger
}

// Fit solves the dual problem, keeps the support vectors and fits the Platt
// sigmoid.
func (s *SVM) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if _, err := checkBinary(y); err != nil {
		return err
	}
	s.NFeature = p
	s.FitGamma = s.Gamma
	if s.FitGamma == GammaScale {
		s.FitGamma = 1.0
		if v := stats.MatrixVariance(X); v > 0 {
			s.FitGamma = 1.0 / (float64(p) * v)
		}
	}

	n := len(X)
	sign := make([]float64, n)
	nPos := 0
	for i, v := range y {
		sign[i] = -1
		if v == 1 {
			sign[i] = 1
			nPos++
		}
	}

	if nPos == 0 || nPos == n {
		// one class: constant decision, no support vectors
		s.SupportVectors, s.DualCoef = nil, nil
		s.Rho = -sign[0]
		s.fitPlatt(nil, sign)
		return nil
	}

	alpha := s.solve(X, sign)

	s.SupportVectors = s.SupportVectors[:0]
	s.DualCoef = s.DualCoef[:0]
	for i, a := range alpha {
		if a > 0 {
			s.SupportVectors = append(s.SupportVectors, append([]float64(nil), X[i]...))
			s.DualCoef = append(s.DualCoef, a*sign[i])
		}
	}

	dec := make([]float64, n)
	for i := range X {
		dec[i] = s.decision(X[i])
	}
	s.fitPlatt(dec, sign)
	s.log().Debug().Int("support_vectors", len(s.SupportVectors)).Float64("gamma", s.FitGamma).Msg("svm fitted")
	return nil
}

// solve runs SMO on the dual and sets Rho. It returns the alphas.
func (s *SVM) solve(X [][]float64, sign []float64) []float64 {
	n := len(X)
	C := s.C
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}
	cache := newKernelCache(X, s.FitGamma, s.CacheRows)

	isUp := func(t int) bool { return (sign[t] > 0 && alpha[t] < C) || (sign[t] < 0 && alpha[t] > 0) }
	isLow := func(t int) bool { return (sign[t] > 0 && alpha[t] > 0) || (sign[t] < 0 && alpha[t] < C) }

	iter := 0
	for ; iter < s.MaxIter; iter++ {
		// maximal violating pair, j chosen by second-order gain
		i, gmax := -1, math.Inf(-1)
		for t := 0; t < n; t++ {
			if isUp(t) && -sign[t]*grad[t] >= gmax {
				i, gmax = t, -sign[t]*grad[t]
			}
		}
		if i < 0 {
			break
		}
		Ki := cache.row(i)
		j, gmin, best := -1, math.Inf(1), math.Inf(1)
		for t := 0; t < n; t++ {
			if !isLow(t) {
				continue
			}
			v := -sign[t] * grad[t]
			gmin = math.Min(gmin, v)
			b := gmax - v
			if b > 0 {
				a := 2 - 2*Ki[t] // K(x,x) = 1 for RBF
				if a <= 0 {
					a = 1e-12
				}
				if obj := -(b * b) / a; obj <= best {
					j, best = t, obj
				}
			}
		}
		if j < 0 || gmax-gmin < s.Tol {
			break
		}
		Kj := cache.row(j)

		oldI, oldJ := alpha[i], alpha[j]
		quad := 2 - 2*Ki[j]
		if quad <= 0 {
			quad = 1e-12
		}
		if sign[i] != sign[j] {
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j], alpha[i] = 0, diff
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, -diff
			}
			if diff > 0 {
				if alpha[i] > C {
					alpha[i], alpha[j] = C, C-diff
				}
			} else if alpha[j] > C {
				alpha[j], alpha[i] = C, C+diff
			}
		} else {
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > C {
				if alpha[i] > C {
					alpha[i], alpha[j] = C, sum-C
				}
			} else if alpha[j] < 0 {
				alpha[j], alpha[i] = 0, sum
			}
			if sum > C {
				if alpha[j] > C {
					alpha[j], alpha[i] = C, sum-C
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += sign[t] * (sign[i]*Ki[t]*dI + sign[j]*Kj[t]*dJ)
		}
	}
	if iter == s.MaxIter {
		s.log().Warn().Int("iterations", iter).Msg("svm solver reached max iterations before converging")
	}

	// rho: mean of y*G over free vectors, else midpoint of the feasible range
	ub, lb := math.Inf(1), math.Inf(-1)
	sum, free := 0.0, 0
	for t := 0; t < n; t++ {
		yg := sign[t] * grad[t]
		switch {
		case alpha[t] >= C:
			if sign[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if sign[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			sum += yg
			free++
		}
	}
	if free > 0 {
		s.Rho = sum / float64(free)
	} else {
		s.Rho = (ub + lb) / 2
	}
	return alpha
}

// fitPlatt fits P(y=1|f) = 1 / (1 + exp(A*f + B)) by L-BFGS on smoothed
// targets. With no decision values only the prior term is kept.
func (s *SVM) fitPlatt(dec, sign []float64) {
	nPos, nNeg := 0.0, 0.0
	for _, v := range sign {
		if v > 0 {
			nPos++
		} else {
			nNeg++
		}
	}
	s.PlattA = 0
	s.PlattB = math.Log((nNeg + 1) / (nPos + 1))
	if dec == nil || nPos == 0 || nNeg == 0 {
		return
	}

	hi, lo := (nPos+1)/(nPos+2), 1/(nNeg+2)
	target := make([]float64, len(sign))
	for i, v := range sign {
		target[i] = lo
		if v > 0 {
			target[i] = hi
		}
	}
	problem := optimize.Problem{
		Func: func(ab []float64) float64 {
			f := 0.0
			for i, d := range dec {
				z := -(ab[0]*d + ab[1])
				f += loss.Softplus(z) - target[i]*z
			}
			return f
		},
		Grad: func(g, ab []float64) {
			g[0], g[1] = 0, 0
			for i, d := range dec {
				z := -(ab[0]*d + ab[1])
				r := loss.Sigmoid(z) - target[i]
				g[0] -= r * d
				g[1] -= r
			}
		},
	}
	res, err := optimize.Minimize(problem, []float64{0, s.PlattB}, &optimize.Settings{MajorIterations: 100}, &optimize.LBFGS{})
	if res == nil {
		s.log().Warn().Err(err).Msg("platt scaling failed; using class prior")
		return
	}
	s.PlattA, s.PlattB = res.X[0], res.X[1]
}

func (s *SVM) decision(x []float64) float64 {
	f := -s.Rho
	for k, sv := range s.SupportVectors {
		f += s.DualCoef[k] * rbf(sv, x, s.FitGamma)
	}
	return f
}

// DecisionFunction returns the signed distance of each row to the margin.
func (s *SVM) DecisionFunction(X [][]float64) ([]float64, error) {
	if s.NFeature == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, s.NFeature); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = s.decision(x)
	}
	return out, nil
}

// Predict labels a row 1 when its decision value is positive.
func (s *SVM) Predict(X [][]float64) ([]int, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(dec))
	for i, d := range dec {
		if d > 0 {
			out[i] = 1
		}
	}
	return out, nil
}

// PredictProba maps decision values through the Platt sigmoid.
func (s *SVM) PredictProba(X [][]float64) ([]float64, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	for i, d := range dec {
		dec[i] = loss.Sigmoid(-(s.PlattA*d + s.PlattB))
	}
	return dec, nil
}

func rbf(a, b []float64, gamma float64) float64 {
	return math.Exp(-gamma * euclidSquared(a, b))
}

// kernelCache computes kernel rows on demand and keeps up to limit of them.
type kernelCache struct {
	X     [][]float64
	gamma float64
	limit int
	rows  map[int][]float64
	order []int
}

func newKernelCache(X [][]float64, gamma float64, limit int) *kernelCache {
	return &kernelCache{X: X, gamma: gamma, limit: max(limit, 2), rows: map[int][]float64{}}
}

func (c *kernelCache) row(i int) []float64 {
	if r, ok := c.rows[i]; ok {
		return r
	}
	if len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.rows, oldest)
	}
	r := make([]float64, len(c.X))
	for t, xt := range c.X {
		r[t] = rbf(c.X[i], xt, c.gamma)
	}
	c.rows[i] = r
	c.order = append(c.order, i)
	return r
}
