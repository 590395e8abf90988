package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nameisahmedh/strokeprediction/pkg/config"
	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/metrics"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/runstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workspace struct {
	dir      string
	data     string
	artifact string
	runsDB   string
	metrics  string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:      dir,
		data:     filepath.Join(dir, "stroke.csv"),
		artifact: filepath.Join(dir, "model", "stroke.model"),
		runsDB:   filepath.Join(dir, "runs.db"),
		metrics:  filepath.Join(dir, "strokeml.prom"),
	}
	require.NoError(t, data.SaveCSV(ws.data, data.Synthetic(400, 11)))
	return ws
}

// run executes one CLI invocation against the workspace and returns stdout.
func (ws *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	base := []string{
		"--data", ws.data,
		"--artifact", ws.artifact,
		"--runs-db", ws.runsDB,
		"--metrics-file", ws.metrics,
		"--plot-dir", filepath.Join(ws.dir, "plots"),
		"--log-level", "error",
	}
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append(args, base...))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestTrainThenPredict(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "train", "knn")
	require.NoError(t, err)
	assert.Contains(t, out, "knn")
	assert.Contains(t, out, "artifact: "+ws.artifact)
	assert.FileExists(t, ws.artifact)
	assert.FileExists(t, ws.metrics)

	records := filepath.Join(ws.dir, "new.csv")
	require.NoError(t, data.SaveCSV(records, data.Synthetic(20, 99)))

	out, err = ws.run(t, "predict", records)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 21)
	header := rows[0]
	assert.Equal(t, predictionColumn, header[len(header)-2])
	assert.Equal(t, probabilityColumn, header[len(header)-1])
	for _, r := range rows[1:] {
		assert.Contains(t, []string{"0", "1"}, r[len(r)-2])
	}

	scored := filepath.Join(ws.dir, "scored.xlsx")
	_, err = ws.run(t, "predict", records, "--out", scored)
	require.NoError(t, err)
	tbl, err := data.Load(scored)
	require.NoError(t, err)
	assert.Equal(t, 20, tbl.Len())
	assert.True(t, tbl.Has(probabilityColumn))
}

func TestPredict_TransformsOnce(t *testing.T) {
	ws := newWorkspace(t)
	_, err := ws.run(t, "train", "knn")
	require.NoError(t, err)

	records := data.Synthetic(10, 5)
	unseen := make([]string, records.Len())
	for i := range unseen {
		unseen[i] = "Other"
	}
	require.NoError(t, records.SetColumn("gender", unseen))
	path := filepath.Join(ws.dir, "unseen.csv")
	require.NoError(t, data.SaveCSV(path, records))

	var logs bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = zerolog.New(&logs)

	cfg := config.Default()
	cfg.ArtifactPath = ws.artifact
	a := &app{cfg: cfg, metrics: metrics.New()}

	var out bytes.Buffer
	require.NoError(t, a.runPredict(&out, path, ""))
	assert.Equal(t, 1, strings.Count(logs.String(), "unseen categories"))
	assert.Contains(t, out.String(), probabilityColumn)
}

func TestPredict_MissingArtifact(t *testing.T) {
	ws := newWorkspace(t)
	_, err := ws.run(t, "predict", ws.data)
	assert.Error(t, err)
}

func TestCompare_IsolatesFailures(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "compare", "naivebayes", "unknownmodel", "knn")
	require.NoError(t, err)
	assert.Contains(t, out, "naivebayes")
	assert.Contains(t, out, "knn")
	assert.Contains(t, out, "unknownmodel")
	assert.Contains(t, out, "failed:")

	out, err = ws.run(t, "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "compare")

	id := strings.Fields(lines[1])[0]
	out, err = ws.run(t, "runs", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"error"`)
	assert.Contains(t, out, id)
}

func TestCurves_WritesPlots(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "curves", "naivebayes", "logisticregression")
	require.NoError(t, err)
	assert.Contains(t, out, "roc: ")
	assert.FileExists(t, filepath.Join(ws.dir, "plots", "roc.png"))
	assert.FileExists(t, filepath.Join(ws.dir, "plots", "pr.png"))
}

func TestModels(t *testing.T) {
	ws := newWorkspace(t)
	out, err := ws.run(t, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "randomforest")
	assert.Contains(t, out, "naivebayes")
}

func TestInvalidFlags(t *testing.T) {
	ws := newWorkspace(t)
	_, err := ws.run(t, "compare", "--k", "0")
	assert.Error(t, err)
}

func writeConfig(t *testing.T, ws *workspace, body string) string {
	t.Helper()
	path := filepath.Join(ws.dir, "strokeml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFlagsOverrideInvalidConfig(t *testing.T) {
	ws := newWorkspace(t)
	cfgPath := writeConfig(t, ws, "k: 0\n")

	_, err := ws.run(t, "compare", "knn", "--config", cfgPath)
	assert.Error(t, err)

	out, err := ws.run(t, "compare", "knn", "--config", cfgPath, "--k", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "knn")
}

func TestUnknownConfiguredModelOnlyBlocksComparisons(t *testing.T) {
	ws := newWorkspace(t)
	cfgPath := writeConfig(t, ws, "models: [knn, unknownmodel]\n")

	_, err := ws.run(t, "runs", "--config", cfgPath)
	require.NoError(t, err)
	_, err = ws.run(t, "models", "--config", cfgPath)
	require.NoError(t, err)

	_, err = ws.run(t, "compare", "--config", cfgPath)
	assert.ErrorIs(t, err, model.ErrUnknownModel)

	out, err := ws.run(t, "compare", "knn", "--config", cfgPath)
	require.NoError(t, err, "explicit names bypass the configured list")
	assert.Contains(t, out, "knn")
}

func TestBestModel(t *testing.T) {
	run := &runstore.Run{Metrics: map[string]runstore.ModelMetrics{
		"knn":          {F1: 0.7},
		"naivebayes":   {F1: 0.8},
		"unknownmodel": {Error: "unknown or unavailable model"},
	}}
	name, f1 := bestModel(run)
	assert.Equal(t, "naivebayes", name)
	assert.InDelta(t, 0.8, f1, 1e-12)

	name, _ = bestModel(&runstore.Run{})
	assert.Equal(t, "-", name)
}
