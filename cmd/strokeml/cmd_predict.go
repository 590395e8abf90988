package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/persist"
	"github.com/nameisahmedh/strokeprediction/pkg/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Output columns appended to the scored table.
const (
	predictionColumn  = "stroke_prediction"
	probabilityColumn = "stroke_probability"
)

func newPredictCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "predict <records>",
		Short: "Score new records (.csv or .xlsx) with the saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPredict(cmd.OutOrStdout(), args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the scored table here instead of stdout (.csv or .xlsx)")
	return cmd
}

func (a *app) runPredict(w io.Writer, input, out string) (err error) {
	defer func() {
		if err != nil {
			a.metrics.ObservePredictions(0, err)
		}
	}()

	art, err := persist.Load(a.cfg.ArtifactPath)
	if err != nil {
		return err
	}
	tbl, err := data.Load(input)
	if err != nil {
		return err
	}

	// transform once so replacement warnings are logged once
	X, err := pipeline.Transform(art.Meta, tbl)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	preds, err := art.Model.Predict(X)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	var proba []float64
	if pe, ok := art.Model.(model.ProbabilityEstimator); ok {
		if proba, err = pe.PredictProba(X); err != nil {
			return fmt.Errorf("predict probabilities: %w", err)
		}
	} else {
		log.Info().Str("model", art.Meta.ModelName).Msg("model has no probabilities; writing labels only")
	}
	a.metrics.ObservePredictions(len(preds), nil)

	scored := tbl.Clone()
	scored.AddColumn(predictionColumn, "")
	if err := scored.SetColumn(predictionColumn, formatLabels(preds)); err != nil {
		return err
	}
	if proba != nil {
		scored.AddColumn(probabilityColumn, "")
		if err := scored.SetColumn(probabilityColumn, formatProba(proba)); err != nil {
			return err
		}
	}

	log.Info().Str("model", art.Meta.ModelName).Int("records", len(preds)).Msg("records scored")
	if out == "" {
		return data.WriteCSV(w, scored)
	}
	if err := data.Save(out, scored); err != nil {
		return err
	}
	fmt.Fprintf(w, "scored %d records with %s: %s\n", len(preds), art.Meta.ModelName, out)
	return nil
}

func formatLabels(preds []int) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = strconv.Itoa(p)
	}
	return out
}

func formatProba(proba []float64) []string {
	out := make([]string, len(proba))
	for i, p := range proba {
		out[i] = strconv.FormatFloat(p, 'f', 4, 64)
	}
	return out
}
