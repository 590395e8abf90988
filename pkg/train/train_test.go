package train

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func split(t *testing.T) ([][]float64, []int, [][]float64, []int) {
	t.Helper()
	r := rand.New(rand.NewSource(3))
	gen := func(n int) ([][]float64, []int) {
		X := make([][]float64, n)
		y := make([]int, n)
		for i := range X {
			y[i] = i % 2
			X[i] = []float64{float64(2*y[i]) + r.NormFloat64()*0.4, r.Float64()}
		}
		return X, y
	}
	Xtr, ytr := gen(60)
	Xte, yte := gen(20)
	return Xtr, ytr, Xte, yte
}

// stub classifiers for failure paths
type failingFit struct{}

func (failingFit) Fit([][]float64, []int) error         { return errors.New("boom") }
func (failingFit) Predict(X [][]float64) ([]int, error) { return nil, nil }

type panickingFit struct{}

func (panickingFit) Fit([][]float64, []int) error         { panic("fit exploded") }
func (panickingFit) Predict(X [][]float64) ([]int, error) { return nil, nil }

type brokenProba struct{ panics bool }

func (brokenProba) Fit([][]float64, []int) error { return nil }
func (brokenProba) Predict(X [][]float64) ([]int, error) {
	return make([]int, len(X)), nil
}
func (b brokenProba) PredictProba(X [][]float64) ([]float64, error) {
	if b.panics {
		panic("proba exploded")
	}
	return nil, errors.New("no scores")
}

type recorder struct {
	mu    sync.Mutex
	fits  map[string]error
	evals map[string]float64
}

func (r *recorder) ObserveFit(name string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits[name] = err
}

func (r *recorder) ObserveEvaluation(name string, acc, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evals[name] = acc
}

func testTrainer(rec Recorder) *Trainer {
	return &Trainer{
		Registry: model.NewRegistry([]model.Entry{
			{Kind: model.KindKNN, Factory: func() model.Classifier { return model.NewKNN(3) }},
			{Kind: model.KindLogisticRegression, Factory: func() model.Classifier { return failingFit{} }},
			{Kind: model.KindSVM, Factory: func() model.Classifier { return panickingFit{} }},
			{Kind: model.KindNaiveBayes, Factory: func() model.Classifier { return brokenProba{panics: true} }},
			{Kind: model.KindRandomForest, Factory: func() model.Classifier { return brokenProba{} }},
			{Kind: model.KindXGBoost},
		}),
		Recorder: rec,
	}
}

func TestTrainAndEvaluate_KNN(t *testing.T) {
	Xtr, ytr, Xte, yte := split(t)
	m, res, err := TrainAndEvaluate("knn", Xtr, ytr, Xte, yte)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "knn", res.Model)
	assert.Len(t, res.Predictions, len(yte))
	assert.Len(t, res.Proba, len(yte))
	assert.GreaterOrEqual(t, res.Accuracy, 0.8)
	assert.Greater(t, res.LogLoss, 0.0)
	assert.Equal(t, []int{0, 1}, res.Confusion.Labels)

	total := 0
	for _, row := range res.Confusion.Matrix {
		for _, c := range row {
			total += c
		}
	}
	assert.Equal(t, len(yte), total)
}

func TestTrainAndEvaluate_Errors(t *testing.T) {
	Xtr, ytr, Xte, yte := split(t)
	tr := testTrainer(nil)

	_, _, err := tr.TrainAndEvaluate("unknownmodel", Xtr, ytr, Xte, yte)
	assert.ErrorIs(t, err, model.ErrUnknownModel)

	_, _, err = tr.TrainAndEvaluate("xgboost", Xtr, ytr, Xte, yte)
	assert.ErrorIs(t, err, model.ErrUnknownModel)

	_, _, err = tr.TrainAndEvaluate("logisticregression", Xtr, ytr, Xte, yte)
	assert.EqualError(t, err, "fit logisticregression: boom")
}

func TestTrainAndEvaluate_ProbabilityFailuresAreAbsent(t *testing.T) {
	Xtr, ytr, Xte, yte := split(t)
	tr := testTrainer(nil)

	for _, name := range []string{"naivebayes", "randomforest"} {
		_, res, err := tr.TrainAndEvaluate(name, Xtr, ytr, Xte, yte)
		require.NoError(t, err, name)
		assert.Nil(t, res.Proba, name)
		assert.Zero(t, res.LogLoss, name)
		assert.InDelta(t, 0.5, res.Accuracy, 1e-12, name)
	}
}

func TestLogLoss(t *testing.T) {
	assert.InDelta(t, math.Ln2, logLoss([]int{1, 0}, []float64{0.5, 0.5}), 1e-12)
	assert.InDelta(t, 0.0, logLoss([]int{1, 0}, []float64{1, 0}), 1e-9)
}

func TestCompareModels_IsolatesFailures(t *testing.T) {
	Xtr, ytr, Xte, yte := split(t)
	out := CompareModels([]string{"unknownmodel", "knn"}, Xtr, ytr, Xte, yte)

	require.Len(t, out, 2)
	assert.Nil(t, out["unknownmodel"].Result)
	assert.Contains(t, out["unknownmodel"].Err, "unknown or unavailable model")
	require.NotNil(t, out["knn"].Result)
	assert.Empty(t, out["knn"].Err)
}

func TestCompareModels_RecoversPanics(t *testing.T) {
	Xtr, ytr, Xte, yte := split(t)
	rec := &recorder{fits: map[string]error{}, evals: map[string]float64{}}
	out := testTrainer(rec).CompareModels([]string{"svm", "logisticregression", "knn"}, Xtr, ytr, Xte, yte)

	assert.Contains(t, out["svm"].Err, "fit exploded")
	assert.Contains(t, out["logisticregression"].Err, "boom")
	require.NotNil(t, out["knn"].Result)

	assert.Error(t, rec.fits["logisticregression"])
	assert.NoError(t, rec.fits["knn"])
	assert.Contains(t, rec.evals, "knn")
	assert.NotContains(t, rec.evals, "logisticregression")

	assert.Equal(t, []string{"logisticregression", "svm"}, Failed(out))
}

func TestRanked(t *testing.T) {
	out := map[string]Outcome{
		"b":   {Result: &Result{Model: "b", F1: 0.7, Accuracy: 0.8}},
		"a":   {Result: &Result{Model: "a", F1: 0.7, Accuracy: 0.8}},
		"c":   {Result: &Result{Model: "c", F1: 0.9}},
		"bad": {Err: "nope"},
	}
	ranked := Ranked(out)
	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].Model)
	assert.Equal(t, "a", ranked[1].Model)
	assert.Equal(t, "b", ranked[2].Model)
}
