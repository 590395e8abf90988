package pipeline

import (
	"errors"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/rs/zerolog/log"
)

// Transform replays the fitted preprocessing on new records and returns the
// matrix the model expects. Unseen categories take code 0, absent features
// are zero-filled and extra columns are ignored. tbl is not modified.
func Transform(meta *Metadata, tbl *data.Table) ([][]float64, error) {
	if meta == nil || meta.Scaler == nil || meta.Selector == nil {
		return nil, ErrNilMetadata
	}
	if tbl == nil {
		return nil, errors.New("pipeline: nil table")
	}

	work := tbl.Clone()
	work.FillMissing("0")

	for _, col := range meta.Categorical {
		enc, ok := meta.Encoders[col]
		if !ok || !work.Has(col) {
			continue
		}
		values, err := work.Column(col)
		if err != nil {
			return nil, err
		}
		codes, replaced := enc.TransformOrFirst(values)
		if replaced > 0 {
			log.Warn().Str("column", col).Int("rows", replaced).Msg("unseen categories mapped to the first known class")
		}
		if err := work.SetColumn(col, itoa(codes)); err != nil {
			return nil, err
		}
	}

	if added := meta.align(work); len(added) > 0 {
		log.Warn().Strs("columns", added).Msg("missing feature columns filled with 0")
	}

	X, err := work.Float(meta.FeatureNames)
	if err != nil {
		return nil, err
	}
	return meta.chain().Transform(X)
}

// Predict returns the model's class label for every record in tbl.
func Predict(m model.Classifier, meta *Metadata, tbl *data.Table) ([]int, error) {
	if m == nil {
		return nil, ErrNilMetadata
	}
	X, err := Transform(meta, tbl)
	if err != nil {
		return nil, err
	}
	return m.Predict(X)
}

// PredictProba returns P(stroke=1) for every record in tbl.
func PredictProba(m model.Classifier, meta *Metadata, tbl *data.Table) ([]float64, error) {
	if m == nil {
		return nil, ErrNilMetadata
	}
	pe, ok := m.(model.ProbabilityEstimator)
	if !ok {
		return nil, ErrNoProbabilities
	}
	X, err := Transform(meta, tbl)
	if err != nil {
		return nil, err
	}
	return pe.PredictProba(X)
}
