package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/dataprep"
	"github.com/nameisahmedh/strokeprediction/pkg/loader"
	"github.com/nameisahmedh/strokeprediction/pkg/stats"
	"github.com/rs/zerolog/log"
)

// ErrNonNumeric is returned when a feature cell is not a number after
// encoding.
var ErrNonNumeric = data.ErrNonNumeric

const (
	// DefaultTarget is the label column of the stroke dataset.
	DefaultTarget = "stroke"
	// DefaultK is the number of features kept by chi-squared selection.
	DefaultK = 9
	// TestRatio is the share of resampled rows held out for evaluation.
	TestRatio = 0.2
	// Seed drives resampling and the train/test split.
	Seed = 42
)

// Options configures Preprocess. Zero values select the stroke defaults.
type Options struct {
	Categorical []string // nil => DefaultCategorical
	Target      string   // "" => DefaultTarget
	Exclude     []string // nil => ["id"]
	K           int      // <= 0 => DefaultK
}

func (o Options) withDefaults() Options {
	if o.Categorical == nil {
		o.Categorical = DefaultCategorical
	}
	if o.Target == "" {
		o.Target = DefaultTarget
	}
	if o.Exclude == nil {
		o.Exclude = []string{"id"}
	}
	if o.K <= 0 {
		o.K = DefaultK
	}
	return o
}

// Prepared holds the split model-ready matrices and the fitted state that
// produced them.
type Prepared struct {
	XTrain, XTest [][]float64
	YTrain, YTest []int
	Meta          *Metadata
}

// Preprocess fits the full preprocessing pipeline on tbl: fill missing cells
// with 0, label-encode categoricals, min-max scale, balance classes with
// SMOTE, keep the k best features by chi-squared and split 80/20. tbl is not
// modified.
func Preprocess(tbl *data.Table, opts Options) (*Prepared, error) {
	if tbl == nil {
		return nil, errors.New("pipeline: nil table")
	}
	opts = opts.withDefaults()
	if !tbl.Has(opts.Target) {
		return nil, fmt.Errorf("%w: %q", ErrMissingTarget, opts.Target)
	}

	work := tbl.Clone()
	filled := work.FillMissing("0")

	categorical := present(work, opts.Categorical, append([]string{opts.Target}, opts.Exclude...)...)
	encoders := make(map[string]*dataprep.LabelEncoder, len(categorical))
	for _, col := range categorical {
		values, err := work.Column(col)
		if err != nil {
			return nil, err
		}
		enc := dataprep.NewLabelEncoder()
		if err := work.SetColumn(col, itoa(enc.FitTransform(values))); err != nil {
			return nil, err
		}
		encoders[col] = enc
	}

	y, err := labels(work, opts.Target)
	if err != nil {
		return nil, err
	}

	names := featureNames(work, opts.Target, opts.Exclude)
	if len(names) == 0 {
		return nil, errors.New("pipeline: no feature columns")
	}
	X, err := work.Float(names)
	if err != nil {
		return nil, err
	}

	scaler := stats.NewMinMaxScaler()
	X, err = scaler.FitTransform(X)
	if err != nil {
		return nil, err
	}

	Xres, yres, err := dataprep.NewSMOTE(dataprep.WithSMOTESeed(Seed)).FitResample(X, y)
	if err != nil {
		return nil, fmt.Errorf("pipeline: resample: %w", err)
	}

	k := min(opts.K, len(names))
	selector := dataprep.NewSelectKBest(k)
	if err := selector.Fit(dataprep.Abs(Xres), yres); err != nil {
		return nil, fmt.Errorf("pipeline: select features: %w", err)
	}
	Xsel, err := selector.Transform(Xres)
	if err != nil {
		return nil, err
	}

	split, err := loader.TrainTestSplit(Xsel, yres, TestRatio, Seed)
	if err != nil {
		return nil, fmt.Errorf("pipeline: split: %w", err)
	}

	meta := &Metadata{
		Schema: Schema{
			Target:       opts.Target,
			Categorical:  categorical,
			FeatureNames: names,
		},
		Encoders:  encoders,
		Scaler:    scaler,
		Selector:  selector,
		CreatedAt: time.Now().UTC(),
	}
	log.Info().
		Stringer("schema", meta.Schema).
		Int("rows", tbl.Len()).
		Int("filled", filled).
		Int("resampled", len(yres)).
		Strs("selected", meta.SelectedFeatures()).
		Int("train", len(split.YTrain)).
		Int("test", len(split.YTest)).
		Msg("preprocessing fitted")

	return &Prepared{
		XTrain: split.XTrain,
		XTest:  split.XTest,
		YTrain: split.YTrain,
		YTest:  split.YTest,
		Meta:   meta,
	}, nil
}

// labels parses the target column as integer class labels.
func labels(tbl *data.Table, target string) ([]int, error) {
	raw, err := tbl.Column(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingTarget, target)
	}
	y := make([]int, len(raw))
	for i, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f != math.Trunc(f) {
			return nil, fmt.Errorf("pipeline: target %q row %d: label %q is not an integer", target, i, v)
		}
		y[i] = int(f)
	}
	return y, nil
}

func itoa(codes []int) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = strconv.Itoa(c)
	}
	return out
}
