package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/persist"
	"github.com/nameisahmedh/strokeprediction/pkg/pipeline"
	"github.com/nameisahmedh/strokeprediction/pkg/plotting"
	"github.com/nameisahmedh/strokeprediction/pkg/train"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//
// Synthetic stroke demo: generate an imbalanced stroke-shaped table, run
// preprocessing, compare every available model, plot the curves, then
// save the best model and score a handful of new patients with it.
//
// Example:
//   go run ./cmd/examples/synthetic --rows 3000 --out /tmp/stroke-demo
//

func main() {
	rows := flag.Int("rows", 2000, "number of synthetic records")
	seed := flag.Int64("seed", 7, "generator seed")
	out := flag.String("out", filepath.Join(os.TempDir(), "strokeml-demo"), "output directory for plots and the artifact")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fmt.Println("=== Stroke Prediction Demo on Synthetic Data ===")

	// Step 1. Generate dataset
	tbl := data.Synthetic(*rows, *seed)
	target, _ := tbl.Column("stroke")
	positives := 0
	for _, v := range target {
		if v == "1" {
			positives++
		}
	}
	fmt.Printf("Generated %d records, %d with stroke (%.1f%%).\n",
		tbl.Len(), positives, 100*float64(positives)/float64(tbl.Len()))

	// Step 2. Preprocess: encode, scale, SMOTE, select features, split
	prep, err := pipeline.Preprocess(tbl, pipeline.Options{Exclude: []string{"id"}})
	if err != nil {
		fail("preprocessing failed", err)
	}
	fmt.Printf("\nTrain size: %d, Test size: %d\n", len(prep.XTrain), len(prep.XTest))
	fmt.Printf("Selected features: %v\n", prep.Meta.SelectedFeatures())

	// Step 3. Compare every model the build supports
	names := model.Available()
	fmt.Printf("\nComparing %d models...\n", len(names))
	outcomes := train.CompareModels(names, prep.XTrain, prep.YTrain, prep.XTest, prep.YTest)
	ranked := train.Ranked(outcomes)
	for _, r := range ranked {
		fmt.Printf("  %-20s acc=%.3f f1=%.3f  (%s)\n", r.Model, r.Accuracy, r.F1, r.Duration.Round(1e6))
	}
	for _, name := range train.Failed(outcomes) {
		fmt.Printf("  %-20s failed: %s\n", name, outcomes[name].Err)
	}
	if len(ranked) == 0 {
		fail("every model failed", nil)
	}

	// Step 4. Curves for models with probabilities
	if err := os.MkdirAll(*out, 0o755); err != nil {
		fail("cannot create output dir", err)
	}
	curves := map[string]*model.CurveData{}
	for _, r := range ranked {
		if cd, ok := model.Curves(prep.YTest, r.Proba); ok {
			curves[r.Model] = cd
		}
	}
	if rocPath, prPath, err := plotting.Both(curves, *out); err == nil {
		fmt.Printf("\nCurves written to %s and %s\n", rocPath, prPath)
	} else {
		fmt.Printf("\nNo curves drawn: %v\n", err)
	}

	// Step 5. Refit the best model and save it with its preprocessing state
	best := ranked[0].Model
	m, _, err := train.TrainAndEvaluate(best, prep.XTrain, prep.YTrain, prep.XTest, prep.YTest)
	if err != nil {
		fail("refit failed", err)
	}
	artifact := filepath.Join(*out, "stroke.model")
	if err := persist.Save(artifact, m, prep.Meta.WithModel(best)); err != nil {
		fail("save failed", err)
	}
	fmt.Printf("\nBest model %q saved to %s\n", best, artifact)

	// Step 6. Load it back and score new patients
	art, err := persist.Load(artifact)
	if err != nil {
		fail("load failed", err)
	}
	patients := data.Synthetic(5, *seed+1)
	preds, err := pipeline.Predict(art.Model, art.Meta, patients)
	if err != nil {
		fail("prediction failed", err)
	}
	proba, _ := pipeline.PredictProba(art.Model, art.Meta, patients)

	fmt.Println("\nNew patients (age, glucose → prediction):")
	ages, _ := patients.Column("age")
	glucose, _ := patients.Column("avg_glucose_level")
	for i := range preds {
		if proba != nil {
			fmt.Printf("  age=%-5s glucose=%-7s → %d (p=%.3f)\n", ages[i], glucose[i], preds[i], proba[i])
		} else {
			fmt.Printf("  age=%-5s glucose=%-7s → %d\n", ages[i], glucose[i], preds[i])
		}
	}
}

func fail(msg string, err error) {
	log.Error().Err(err).Msg(msg)
	os.Exit(1)
}
