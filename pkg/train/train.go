// Package train fits registry models on prepared matrices, scores them on the
// held-out split and compares several models side by side.
package train

import (
	"fmt"
	"sort"
	"time"

	"github.com/nameisahmedh/strokeprediction/pkg/loss"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Result is the evaluation of one fitted model on the test split.
type Result struct {
	Model       string
	Accuracy    float64
	Precision   float64 // macro average
	Recall      float64 // macro average
	F1          float64 // macro average
	Confusion   model.Confusion
	Predictions []int
	Proba       []float64 // P(y=1) per test row; nil when the model has none
	LogLoss     float64   // cross-entropy of Proba; 0 when Proba is nil
	Duration    time.Duration
}

// Outcome is one entry of a comparison: either a Result or the error text.
type Outcome struct {
	Result *Result
	Err    string
}

// Recorder receives training events. metrics.Metrics implements it.
type Recorder interface {
	ObserveFit(model string, d time.Duration, err error)
	ObserveEvaluation(model string, accuracy, f1 float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFit(string, time.Duration, error)    {}
func (nopRecorder) ObserveEvaluation(string, float64, float64) {}

// Trainer resolves model names against Registry and reports to Recorder.
// The zero value uses the default registry and records nothing.
type Trainer struct {
	Registry *model.Registry
	Recorder Recorder
}

func (t *Trainer) registry() *model.Registry {
	if t.Registry != nil {
		return t.Registry
	}
	return model.Default()
}

func (t *Trainer) recorder() Recorder {
	if t.Recorder != nil {
		return t.Recorder
	}
	return nopRecorder{}
}

// TrainAndEvaluate builds the named model, fits it on the training split and
// scores it on the test split. Lookup, fit and predict failures are returned
// as errors; a failure while computing probabilities only leaves Proba nil.
func (t *Trainer) TrainAndEvaluate(name string, XTrain [][]float64, YTrain []int, XTest [][]float64, YTest []int) (model.Classifier, *Result, error) {
	factory, err := t.registry().Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	m := factory()

	// solver chatter such as convergence warnings is dropped during Fit only
	ls, quiet := m.(model.LoggerSetter)
	if quiet {
		ls.SetLogger(log.Logger.Level(zerolog.ErrorLevel))
	}
	start := time.Now()
	err = m.Fit(XTrain, YTrain)
	elapsed := time.Since(start)
	if quiet {
		ls.SetLogger(log.Logger)
	}
	t.recorder().ObserveFit(name, elapsed, err)
	if err != nil {
		return nil, nil, fmt.Errorf("fit %s: %w", name, err)
	}

	pred, err := m.Predict(XTest)
	if err != nil {
		return nil, nil, fmt.Errorf("predict %s: %w", name, err)
	}

	res := Evaluate(YTest, pred)
	res.Model = name
	res.Duration = elapsed
	res.Proba = probabilities(name, m, XTest)
	if res.Proba != nil {
		res.LogLoss = logLoss(YTest, res.Proba)
	}
	t.recorder().ObserveEvaluation(name, res.Accuracy, res.F1)

	log.Info().
		Str("model", name).
		Dur("fit", elapsed).
		Float64("accuracy", res.Accuracy).
		Float64("f1", res.F1).
		Bool("proba", res.Proba != nil).
		Msg("model evaluated")
	return m, res, nil
}

// CompareModels runs TrainAndEvaluate for every name. Each entry succeeds or
// fails on its own: unknown names, fit errors and panics are recorded in
// Outcome.Err and never stop the remaining models.
func (t *Trainer) CompareModels(names []string, XTrain [][]float64, YTrain []int, XTest [][]float64, YTest []int) map[string]Outcome {
	out := make(map[string]Outcome, len(names))
	for _, name := range names {
		res, err := t.safeTrain(name, XTrain, YTrain, XTest, YTest)
		if err != nil {
			log.Warn().Str("model", name).Err(err).Msg("model failed during comparison")
			out[name] = Outcome{Err: err.Error()}
			continue
		}
		out[name] = Outcome{Result: res}
	}
	return out
}

func (t *Trainer) safeTrain(name string, XTrain [][]float64, YTrain []int, XTest [][]float64, YTest []int) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	_, res, err = t.TrainAndEvaluate(name, XTrain, YTrain, XTest, YTest)
	return res, err
}

// Evaluate scores predictions against the truth. Model, Duration and Proba
// are left for the caller.
func Evaluate(yTrue, yPred []int) *Result {
	prec, rec, f1 := model.PrecisionRecallF1(yTrue, yPred)
	return &Result{
		Accuracy:    model.Accuracy(yTrue, yPred),
		Precision:   prec,
		Recall:      rec,
		F1:          f1,
		Confusion:   model.ConfusionMatrix(yTrue, yPred),
		Predictions: yPred,
	}
}

// probabilities returns P(y=1) for X, or nil when the model has no
// probability output or fails to produce one.
func probabilities(name string, m model.Classifier, X [][]float64) (proba []float64) {
	pe, ok := m.(model.ProbabilityEstimator)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("model", name).Interface("panic", r).Msg("probabilities unavailable")
			proba = nil
		}
	}()
	p, err := pe.PredictProba(X)
	if err != nil {
		log.Warn().Str("model", name).Err(err).Msg("probabilities unavailable")
		return nil
	}
	return p
}

func logLoss(yTrue []int, proba []float64) float64 {
	target := make([]float64, len(yTrue))
	for i, v := range yTrue {
		target[i] = float64(v)
	}
	l, _ := loss.BCE(target, proba)
	return l
}

// Ranked returns the successful outcomes ordered by F1, best first. Ties
// are broken by accuracy, then by name.
func Ranked(outcomes map[string]Outcome) []*Result {
	var out []*Result
	for _, o := range outcomes {
		if o.Result != nil {
			out = append(out, o.Result)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.F1 != b.F1 {
			return a.F1 > b.F1
		}
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		return a.Model < b.Model
	})
	return out
}

// Failed returns the names of failed outcomes in sorted order.
func Failed(outcomes map[string]Outcome) []string {
	var out []string
	for name, o := range outcomes {
		if o.Result == nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

var defaultTrainer = &Trainer{}

// TrainAndEvaluate uses the default registry and no recorder.
func TrainAndEvaluate(name string, XTrain [][]float64, YTrain []int, XTest [][]float64, YTest []int) (model.Classifier, *Result, error) {
	return defaultTrainer.TrainAndEvaluate(name, XTrain, YTrain, XTest, YTest)
}

// CompareModels uses the default registry and no recorder.
func CompareModels(names []string, XTrain [][]float64, YTrain []int, XTest [][]float64, YTest []int) map[string]Outcome {
	return defaultTrainer.CompareModels(names, XTrain, YTrain, XTest, YTest)
}
