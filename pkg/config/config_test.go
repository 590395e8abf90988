package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strokeml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "stroke", cfg.Target)
	assert.Equal(t, 9, cfg.K)
	assert.Equal(t, model.Available(), cfg.Models)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
data_path: data/stroke.xlsx
k: 5
models: [knn, naivebayes]
log_level: debug
`)
	t.Setenv("STROKEML_K", "7")
	t.Setenv("STROKEML_MODELS", "svm,knn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/stroke.xlsx", cfg.DataPath)
	assert.Equal(t, 7, cfg.K)
	assert.Equal(t, []string{"svm", "knn"}, cfg.Models)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "stroke", cfg.Target, "unset keys keep their defaults")
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeFile(t, "target: had_stroke\n")
	t.Setenv("STROKEML_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "had_stroke", cfg.Target)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = Load(writeFile(t, "kay: 3\n"))
	assert.Error(t, err, "unknown keys are rejected")

	cfg, err := Load(writeFile(t, "models: [knn, unknownmodel]\n"))
	require.NoError(t, err, "loading does not validate")
	assert.ErrorIs(t, cfg.Validate(), model.ErrUnknownModel)
	assert.ErrorIs(t, cfg.ValidateModels(), model.ErrUnknownModel)
	assert.NoError(t, cfg.ValidateSettings())
}

func TestLoad_LeavesInvalidValuesForOverrides(t *testing.T) {
	cfg, err := Load(writeFile(t, "k: 0\n"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.K = 5
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero k":       func(c *Config) { c.K = 0 },
		"empty target": func(c *Config) { c.Target = " " },
		"no models":    func(c *Config) { c.Models = nil },
		"bad level":    func(c *Config) { c.LogLevel = "loud" },
		"bad format":   func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.Options()
	assert.Equal(t, []string{"id"}, opts.Exclude)
	assert.Equal(t, cfg.K, opts.K)

	cfg.IDColumn = ""
	assert.Empty(t, cfg.Options().Exclude)
	assert.NotNil(t, cfg.Options().Exclude)
}
