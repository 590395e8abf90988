package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/persist"
	"github.com/nameisahmedh/strokeprediction/pkg/pipeline"
	"github.com/nameisahmedh/strokeprediction/pkg/plotting"
	"github.com/nameisahmedh/strokeprediction/pkg/runstore"
	"github.com/nameisahmedh/strokeprediction/pkg/train"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultModel = "randomforest"

func newTrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "train [model]",
		Short: "Train one model, report its test metrics and save the artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultModel
			if len(args) == 1 {
				name = args[0]
			}
			return a.runTrain(cmd.OutOrStdout(), name)
		},
	}
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare [model...]",
		Short: "Train several models on the same split and rank them by F1",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runCompare(cmd.OutOrStdout(), "compare", args)
			return err
		},
	}
}

func newCurvesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "curves [model...]",
		Short: "Compare models and draw their ROC and precision-recall curves",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCurves(cmd.OutOrStdout(), args)
		},
	}
}

// loadTable reads the configured dataset.
func (a *app) loadTable() (*data.Table, error) {
	path := a.cfg.DataPath
	ext := strings.ToLower(filepath.Ext(path))
	if a.cfg.Sheet != "" && (ext == ".xlsx" || ext == ".xlsm") {
		return data.LoadXLSX(path, a.cfg.Sheet)
	}
	return data.Load(path)
}

func (a *app) prepare() (*pipeline.Prepared, error) {
	tbl, err := a.loadTable()
	if err != nil {
		return nil, err
	}
	return pipeline.Preprocess(tbl, a.cfg.Options())
}

func (a *app) trainer() *train.Trainer {
	return &train.Trainer{Recorder: a.metrics}
}

func (a *app) runTrain(w io.Writer, name string) error {
	prep, err := a.prepare()
	if err != nil {
		return err
	}
	run := runstore.NewRun("train", a.cfg.DataPath, []string{name})

	m, res, err := a.trainer().TrainAndEvaluate(name, prep.XTrain, prep.YTrain, prep.XTest, prep.YTest)
	if err != nil {
		run.Metrics[name] = runstore.ModelMetrics{Error: err.Error()}
		a.recordRun(run)
		return err
	}
	run.Metrics[name] = summarize(res, prep.YTest)

	if err := os.MkdirAll(filepath.Dir(a.cfg.ArtifactPath), 0o755); err != nil {
		a.recordRun(run)
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := persist.Save(a.cfg.ArtifactPath, m, prep.Meta.WithModel(name)); err != nil {
		a.recordRun(run)
		return err
	}
	run.ArtifactPath = a.cfg.ArtifactPath
	a.recordRun(run)

	writeResults(w, []*train.Result{res}, nil)
	writeConfusion(w, res.Confusion)
	fmt.Fprintf(w, "\nfeatures: %s\nartifact: %s\nrun: %s\n",
		strings.Join(prep.Meta.SelectedFeatures(), ", "), a.cfg.ArtifactPath, run.ID)
	return nil
}

func (a *app) runCompare(w io.Writer, command string, names []string) (*comparison, error) {
	if len(names) == 0 {
		if err := a.cfg.ValidateModels(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		names = a.cfg.Models
	}
	prep, err := a.prepare()
	if err != nil {
		return nil, err
	}
	run := runstore.NewRun(command, a.cfg.DataPath, names)

	outcomes := a.trainer().CompareModels(names, prep.XTrain, prep.YTrain, prep.XTest, prep.YTest)
	for name, o := range outcomes {
		if o.Result == nil {
			run.Metrics[name] = runstore.ModelMetrics{Error: o.Err}
			continue
		}
		run.Metrics[name] = summarize(o.Result, prep.YTest)
	}
	a.recordRun(run)

	ranked := train.Ranked(outcomes)
	failed := map[string]string{}
	for _, name := range train.Failed(outcomes) {
		failed[name] = outcomes[name].Err
	}
	writeResults(w, ranked, failed)
	fmt.Fprintf(w, "\nrun: %s\n", run.ID)
	return &comparison{ranked: ranked, yTest: prep.YTest}, nil
}

type comparison struct {
	ranked []*train.Result
	yTest  []int
}

func (a *app) runCurves(w io.Writer, names []string) error {
	cmp, err := a.runCompare(w, "curves", names)
	if err != nil {
		return err
	}
	curves := map[string]*model.CurveData{}
	for _, res := range cmp.ranked {
		cd, ok := model.Curves(cmp.yTest, res.Proba)
		if !ok {
			log.Warn().Str("model", res.Model).Msg("no curves: probabilities unavailable or single-class test split")
			continue
		}
		curves[res.Model] = cd
	}
	if len(curves) == 0 {
		return plotting.ErrNoCurves
	}
	if err := os.MkdirAll(a.cfg.PlotDir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	rocPath, prPath, err := plotting.Both(curves, a.cfg.PlotDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "roc: %s\npr:  %s\n", rocPath, prPath)
	return nil
}

// recordRun stores run in the history database. Failures are logged only;
// losing a history entry never fails the command.
func (a *app) recordRun(run *runstore.Run) {
	if a.cfg.RunsDB == "" {
		return
	}
	store, err := runstore.Open(a.cfg.RunsDB)
	if err != nil {
		log.Warn().Err(err).Str("path", a.cfg.RunsDB).Msg("run history unavailable")
		return
	}
	defer store.Close()
	if err := store.Put(run); err != nil {
		log.Warn().Err(err).Str("run", run.ID).Msg("failed to record run")
	}
}

func summarize(res *train.Result, yTest []int) runstore.ModelMetrics {
	mm := runstore.ModelMetrics{
		Accuracy:  res.Accuracy,
		Precision: res.Precision,
		Recall:    res.Recall,
		F1:        res.F1,
		LogLoss:   res.LogLoss,
		FitMillis: res.Duration.Milliseconds(),
	}
	if cd, ok := model.Curves(yTest, res.Proba); ok {
		mm.AUC = cd.AUC
	}
	return mm
}

func writeResults(w io.Writer, ranked []*train.Result, failed map[string]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tACCURACY\tPRECISION\tRECALL\tF1\tFIT")
	for _, r := range ranked {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			r.Model, r.Accuracy, r.Precision, r.Recall, r.F1, r.Duration.Round(time.Millisecond))
	}
	for _, name := range sortedKeys(failed) {
		fmt.Fprintf(tw, "%s\tfailed: %s\t\t\t\t\n", name, failed[name])
	}
	tw.Flush()
}

func writeConfusion(w io.Writer, c model.Confusion) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "\nactual\\predicted")
	for _, l := range c.Labels {
		fmt.Fprintf(tw, "\t%d", l)
	}
	fmt.Fprintln(tw)
	for i, l := range c.Labels {
		fmt.Fprintf(tw, "%d", l)
		for _, n := range c.Matrix[i] {
			fmt.Fprintf(tw, "\t%d", n)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}
