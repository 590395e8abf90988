// Package config loads strokeml settings. Values come from built-in
// defaults, then an optional YAML file, then STROKEML_* environment
// variables (a .env file in the working directory is read first), and
// finally command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/pipeline"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. STROKEML_K.
const EnvPrefix = "STROKEML"

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "strokeml.yaml"

// Config holds all runtime settings.
type Config struct {
	DataPath     string   `yaml:"data_path" envconfig:"DATA_PATH"`
	Sheet        string   `yaml:"sheet" envconfig:"SHEET"` // xlsx sheet, first sheet when empty
	Target       string   `yaml:"target" envconfig:"TARGET"`
	IDColumn     string   `yaml:"id_column" envconfig:"ID_COLUMN"`
	Categorical  []string `yaml:"categorical" envconfig:"CATEGORICAL"`
	K            int      `yaml:"k" envconfig:"K"`
	Models       []string `yaml:"models" envconfig:"MODELS"`
	ArtifactPath string   `yaml:"artifact_path" envconfig:"ARTIFACT_PATH"`
	RunsDB       string   `yaml:"runs_db" envconfig:"RUNS_DB"`
	MetricsFile  string   `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
	PlotDir      string   `yaml:"plot_dir" envconfig:"PLOT_DIR"`
	LogLevel     string   `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat    string   `yaml:"log_format" envconfig:"LOG_FORMAT"` // console or json
}

// Default returns the settings for the Kaggle stroke dataset.
func Default() *Config {
	return &Config{
		DataPath:     "healthcare-dataset-stroke-data.csv",
		Target:       pipeline.DefaultTarget,
		IDColumn:     "id",
		Categorical:  append([]string(nil), pipeline.DefaultCategorical...),
		K:            pipeline.DefaultK,
		Models:       model.Available(),
		ArtifactPath: "stroke.model",
		RunsDB:       "strokeml-runs.db",
		PlotDir:      "plots",
		LogLevel:     "info",
		LogFormat:    "console",
	}
}

// Load builds the configuration. path may be empty, in which case
// STROKEML_CONFIG or DefaultFile is used when present. The result is not
// validated: callers apply their own overrides first, then call Validate.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path. Unknown keys are rejected.
func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings that cannot produce a run.
func (c *Config) Validate() error {
	return errors.Join(c.ValidateSettings(), c.ValidateModels())
}

// ValidateModels checks the model list against the registry compiled into
// this build.
func (c *Config) ValidateModels() error {
	if len(c.Models) == 0 {
		return errors.New("at least one model is required")
	}
	var errs []error
	for _, name := range c.Models {
		if _, err := model.Lookup(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateSettings checks everything except the model list, which only the
// commands that train from it need.
func (c *Config) ValidateSettings() error {
	var errs []error
	if c.K <= 0 {
		errs = append(errs, fmt.Errorf("k must be positive, got %d", c.K))
	}
	if strings.TrimSpace(c.Target) == "" {
		errs = append(errs, errors.New("target must not be empty"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format must be console or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Options returns the preprocessing options for this configuration.
func (c *Config) Options() pipeline.Options {
	exclude := []string{}
	if c.IDColumn != "" {
		exclude = []string{c.IDColumn}
	}
	return pipeline.Options{
		Categorical: c.Categorical,
		Target:      c.Target,
		Exclude:     exclude,
		K:           c.K,
	}
}
