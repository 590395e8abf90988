package persist

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepared(t *testing.T) (*data.Table, *pipeline.Prepared) {
	t.Helper()
	tbl := data.Synthetic(600, 5)
	prep, err := pipeline.Preprocess(tbl, pipeline.Options{})
	require.NoError(t, err)
	return tbl, prep
}

func TestSaveLoad_RoundTripEveryModel(t *testing.T) {
	tbl, prep := prepared(t)
	dir := t.TempDir()

	for _, name := range model.Available() {
		t.Run(name, func(t *testing.T) {
			f, err := model.Lookup(name)
			require.NoError(t, err)
			m := f()
			require.NoError(t, m.Fit(prep.XTrain, prep.YTrain))
			want, err := pipeline.Predict(m, prep.Meta, tbl)
			require.NoError(t, err)

			path := filepath.Join(dir, name+".model")
			require.NoError(t, Save(path, m, prep.Meta.WithModel(name)))

			a, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, name, a.Meta.ModelName)
			assert.Equal(t, prep.Meta.FeatureNames, a.Meta.FeatureNames)
			assert.Equal(t, prep.Meta.Selector.Selected, a.Meta.Selector.Selected)

			got, err := pipeline.Predict(a.Model, a.Meta, tbl)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	// only the artifacts remain; temp files were renamed away
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(model.Available()))
}

func TestSave_Overwrites(t *testing.T) {
	_, prep := prepared(t)
	path := filepath.Join(t.TempDir(), "stroke.model")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	m := model.NewKNN(3)
	require.NoError(t, m.Fit(prep.XTrain, prep.YTrain))
	require.NoError(t, Save(path, m, prep.Meta))

	a, err := Load(path)
	require.NoError(t, err)
	assert.IsType(t, &model.KNN{}, a.Model)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o644), info.Mode().Perm(), "artifacts are world-readable")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.model"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	junk := filepath.Join(dir, "junk.model")
	require.NoError(t, os.WriteFile(junk, []byte("PK\x03\x04 not ours"), 0o600))
	_, err = Load(junk)
	assert.ErrorIs(t, err, ErrNotArtifact)

	future := filepath.Join(dir, "future.model")
	require.NoError(t, os.WriteFile(future, []byte("STROKEML\x09"), 0o600))
	_, err = Load(future)
	assert.ErrorIs(t, err, ErrNotArtifact)

	truncated := filepath.Join(dir, "truncated.model")
	require.NoError(t, os.WriteFile(truncated, []byte("STROKEML\x01\x17garbage"), 0o600))
	_, err = Load(truncated)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEncode_Header(t *testing.T) {
	_, prep := prepared(t)
	m := model.NewGaussianNB()
	require.NoError(t, m.Fit(prep.XTrain, prep.YTrain))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Artifact{Model: m, Meta: prep.Meta}))
	assert.Equal(t, "STROKEML\x01", buf.String()[:9])
}

func TestSave_RejectsNil(t *testing.T) {
	assert.Error(t, Save(filepath.Join(t.TempDir(), "x"), nil, nil))
}
