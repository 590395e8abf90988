package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nameisahmedh/strokeprediction/pkg/config"
	"github.com/nameisahmedh/strokeprediction/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	dataPath   string
	target     string
	k          int
	models     []string
	artifact   string
	runsDB     string
	plotDir    string
	metricsOut string

	cfg     *config.Config
	metrics *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "strokeml",
		Short: "Stroke-risk classification toolkit",
		Long: `strokeml preprocesses the stroke dataset, trains and compares
binary classifiers, and scores new patient records with a saved model.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.flush,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default $STROKEML_CONFIG or ./strokeml.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&a.dataPath, "data", "", "training table (.csv or .xlsx)")
	pf.StringVar(&a.target, "target", "", "label column")
	pf.IntVar(&a.k, "k", 0, "number of features to keep")
	pf.StringSliceVar(&a.models, "models", nil, "models to compare")
	pf.StringVar(&a.artifact, "artifact", "", "model artifact path")
	pf.StringVar(&a.runsDB, "runs-db", "", "run history database")
	pf.StringVar(&a.plotDir, "plot-dir", "", "directory for curve plots")
	pf.StringVar(&a.metricsOut, "metrics-file", "", "Prometheus textfile written on exit")

	rootCmd.AddCommand(
		newTrainCmd(a),
		newCompareCmd(a),
		newCurvesCmd(a),
		newPredictCmd(a),
		newRunsCmd(a),
		newModelsCmd(a),
	)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and configures
// logging and metrics.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("data") {
		cfg.DataPath = a.dataPath
	}
	if flags.Changed("target") {
		cfg.Target = a.target
	}
	if flags.Changed("k") {
		cfg.K = a.k
	}
	if flags.Changed("models") {
		cfg.Models = a.models
	}
	if flags.Changed("artifact") {
		cfg.ArtifactPath = a.artifact
	}
	if flags.Changed("runs-db") {
		cfg.RunsDB = a.runsDB
	}
	if flags.Changed("plot-dir") {
		cfg.PlotDir = a.plotDir
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = a.metricsOut
	}
	if err := cfg.ValidateSettings(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := setupLogging(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
		return err
	}
	a.cfg = cfg
	a.metrics = metrics.New()
	log.Debug().Str("data", cfg.DataPath).Strs("models", cfg.Models).Int("k", cfg.K).Msg("configuration loaded")
	return nil
}

// flush writes the metrics textfile when one is configured.
func (a *app) flush(*cobra.Command, []string) error {
	if a.cfg == nil || a.cfg.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return err
	}
	log.Debug().Str("path", a.cfg.MetricsFile).Msg("metrics written")
	return nil
}

func setupLogging(level, format string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	if w == nil {
		w = os.Stderr
	}
	if format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return nil
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
	return nil
}
