// Package pipeline turns a raw stroke table into model input. Preprocess fits
// every step once on training data and records the fitted state in a
// Metadata bundle; Predict replays that state on new records without
// refitting anything.
package pipeline

import (
	"errors"
	"time"

	"github.com/nameisahmedh/strokeprediction/pkg/dataprep"
	"github.com/nameisahmedh/strokeprediction/pkg/stats"
)

var (
	// ErrMissingTarget is returned when the target column is absent.
	ErrMissingTarget = errors.New("pipeline: target column missing")
	// ErrNoProbabilities is returned by PredictProba for models that do not
	// score rows.
	ErrNoProbabilities = errors.New("pipeline: model does not provide probabilities")
	// ErrNilMetadata is returned when inference runs without fitted state.
	ErrNilMetadata = errors.New("pipeline: nil model or metadata")
)

// Transformer is a fitted step that maps a matrix to a matrix.
type Transformer interface {
	Transform(X [][]float64) ([][]float64, error)
}

// Chain applies fitted transformers in order.
type Chain []Transformer

// Transform runs X through every step.
func (c Chain) Transform(X [][]float64) ([][]float64, error) {
	var err error
	for _, step := range c {
		X, err = step.Transform(X)
		if err != nil {
			return nil, err
		}
	}
	return X, nil
}

// Metadata is the fitted preprocessing state of one training run. It is
// created by Preprocess and only read afterwards.
type Metadata struct {
	Schema
	Encoders  map[string]*dataprep.LabelEncoder
	Scaler    *stats.MinMaxScaler
	Selector  *dataprep.SelectKBest
	ModelName string
	CreatedAt time.Time
}

// WithModel returns a copy of m labelled with the model it accompanies.
func (m *Metadata) WithModel(name string) *Metadata {
	cp := *m
	cp.ModelName = name
	return &cp
}

// SelectedFeatures names the columns that reach the model, in model order.
func (m *Metadata) SelectedFeatures() []string {
	out := make([]string, 0, len(m.Selector.Selected))
	for _, j := range m.Selector.Selected {
		out = append(out, m.FeatureNames[j])
	}
	return out
}

// chain is the numeric part of the pipeline replayed at inference time.
func (m *Metadata) chain() Chain {
	return Chain{m.Scaler, m.Selector}
}
