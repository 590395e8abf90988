package pipeline

import (
	"fmt"
	"testing"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// strokeTable builds 40 records, 8 of them positive, with a few N/A bmi cells.
func strokeTable(t *testing.T) *data.Table {
	t.Helper()
	genders := []string{"Male", "Female"}
	works := []string{"Private", "Self-employed", "Govt_job", "children"}
	smoking := []string{"formerly smoked", "never smoked", "smokes", "Unknown"}

	rows := make([][]string, 40)
	for i := range rows {
		married := "No"
		if i > 10 {
			married = "Yes"
		}
		residence := "Urban"
		if i%3 == 0 {
			residence = "Rural"
		}
		bmi := fmt.Sprint(20 + i%10)
		if i%9 == 0 {
			bmi = "N/A"
		}
		stroke := "0"
		if i%5 == 4 {
			stroke = "1"
		}
		rows[i] = []string{
			fmt.Sprint(1000 + i),
			genders[i%2],
			fmt.Sprint(20 + float64(i)*1.5),
			fmt.Sprint(b2i(i%7 == 0)),
			fmt.Sprint(b2i(i%11 == 0)),
			married,
			works[i%4],
			residence,
			fmt.Sprint(70 + (i*37)%120),
			bmi,
			smoking[i%4],
			stroke,
		}
	}
	tbl, err := data.NewTable(append([]string(nil), data.StrokeColumns...), rows)
	require.NoError(t, err)
	return tbl
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func without(t *testing.T, tbl *data.Table, drop string) *data.Table {
	t.Helper()
	var cols []string
	for _, c := range tbl.Columns {
		if c != drop {
			cols = append(cols, c)
		}
	}
	rows := make([][]string, tbl.Len())
	for i, r := range tbl.Rows {
		for j, v := range r {
			if tbl.Columns[j] != drop {
				rows[i] = append(rows[i], v)
			}
		}
	}
	out, err := data.NewTable(cols, rows)
	require.NoError(t, err)
	return out
}

func set(t *testing.T, tbl *data.Table, col string, row int, v string) *data.Table {
	t.Helper()
	out := tbl.Clone()
	out.Rows[row][out.Index(col)] = v
	return out
}

type labelOnly struct{}

func (labelOnly) Fit([][]float64, []int) error { return nil }
func (labelOnly) Predict(X [][]float64) ([]int, error) {
	return make([]int, len(X)), nil
}

func TestPreprocess_Shapes(t *testing.T) {
	prep, err := Preprocess(strokeTable(t), Options{})
	require.NoError(t, err)

	// 32 negatives; SMOTE adds 24 positives to reach 64 rows
	assert.Len(t, prep.XTest, 13)
	assert.Len(t, prep.XTrain, 51)
	assert.Len(t, prep.YTrain, 51)
	assert.Len(t, prep.XTrain[0], DefaultK)

	counts := map[int]int{}
	for _, v := range append(append([]int(nil), prep.YTrain...), prep.YTest...) {
		counts[v]++
	}
	assert.Equal(t, map[int]int{0: 32, 1: 32}, counts)

	assert.Len(t, prep.Meta.FeatureNames, 10)
	assert.NotContains(t, prep.Meta.FeatureNames, "id")
	assert.NotContains(t, prep.Meta.FeatureNames, "stroke")
	assert.Equal(t, DefaultCategorical, prep.Meta.Categorical)
	assert.Len(t, prep.Meta.SelectedFeatures(), DefaultK)
	assert.Equal(t,
		"target=stroke features=10 categorical=[gender ever_married work_type Residence_type smoking_status]",
		prep.Meta.Schema.String())
}

func TestPreprocess_MissingTarget(t *testing.T) {
	prep, err := Preprocess(without(t, strokeTable(t), "stroke"), Options{})
	assert.ErrorIs(t, err, ErrMissingTarget)
	assert.Nil(t, prep)
}

func TestPreprocess_KIsClamped(t *testing.T) {
	prep, err := Preprocess(strokeTable(t), Options{K: 50})
	require.NoError(t, err)
	assert.Equal(t, 10, prep.Meta.Selector.K)
	assert.Len(t, prep.XTrain[0], 10)
}

func TestPreprocess_EncodersAreSortedAndInRange(t *testing.T) {
	prep, err := Preprocess(strokeTable(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Female", "Male"}, prep.Meta.Encoders["gender"].Classes)
	assert.Equal(t, []string{"Govt_job", "Private", "Self-employed", "children"}, prep.Meta.Encoders["work_type"].Classes)

	for _, row := range append(append([][]float64(nil), prep.XTrain...), prep.XTest...) {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0+1e-12)
		}
	}
}

func TestPreprocess_DoesNotMutateInput(t *testing.T) {
	tbl := strokeTable(t)
	before := tbl.Clone()
	_, err := Preprocess(tbl, Options{})
	require.NoError(t, err)
	assert.Equal(t, before, tbl)
}

func TestPreprocess_Deterministic(t *testing.T) {
	a, err := Preprocess(strokeTable(t), Options{})
	require.NoError(t, err)
	b, err := Preprocess(strokeTable(t), Options{})
	require.NoError(t, err)
	assert.Equal(t, a.XTrain, b.XTrain)
	assert.Equal(t, a.YTest, b.YTest)
	assert.Equal(t, a.Meta.Selector.Selected, b.Meta.Selector.Selected)
}

func TestPreprocess_NonNumericFeature(t *testing.T) {
	tbl := strokeTable(t)
	tbl.AddColumn("notes", "see chart")
	_, err := Preprocess(tbl, Options{})
	assert.ErrorIs(t, err, ErrNonNumeric)
}

func TestPreprocess_SingleClass(t *testing.T) {
	tbl := strokeTable(t)
	for _, r := range tbl.Rows {
		r[tbl.Index("stroke")] = "0"
	}
	_, err := Preprocess(tbl, Options{})
	assert.Error(t, err)
}

func fitted(t *testing.T) (model.Classifier, *Metadata) {
	t.Helper()
	prep, err := Preprocess(strokeTable(t), Options{})
	require.NoError(t, err)
	m := model.NewKNN(3)
	require.NoError(t, m.Fit(prep.XTrain, prep.YTrain))
	return m, prep.Meta
}

func TestPredict_RawRecords(t *testing.T) {
	m, meta := fitted(t)
	pred, err := Predict(m, meta, strokeTable(t))
	require.NoError(t, err)
	assert.Len(t, pred, 40)
	for _, v := range pred {
		assert.Contains(t, []int{0, 1}, v)
	}

	proba, err := PredictProba(m, meta, strokeTable(t))
	require.NoError(t, err)
	assert.Len(t, proba, 40)
}

func TestPredict_UnseenCategoryUsesFirstClass(t *testing.T) {
	m, meta := fitted(t)
	tbl := strokeTable(t)

	unseen, err := Transform(meta, set(t, tbl, "gender", 1, "Other"))
	require.NoError(t, err)
	first, err := Transform(meta, set(t, tbl, "gender", 1, "Female"))
	require.NoError(t, err)
	assert.Equal(t, first, unseen)

	_, err = Predict(m, meta, set(t, tbl, "gender", 1, "Other"))
	assert.NoError(t, err)
}

func TestPredict_MissingFeatureIsZeroFilled(t *testing.T) {
	m, meta := fitted(t)
	tbl := strokeTable(t)
	zeroed := tbl.Clone()
	for _, r := range zeroed.Rows {
		r[zeroed.Index("bmi")] = "0"
	}

	got, err := Transform(meta, without(t, tbl, "bmi"))
	require.NoError(t, err)
	want, err := Transform(meta, zeroed)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Predict(m, meta, without(t, tbl, "bmi"))
	assert.NoError(t, err)
}

func TestPredict_ExtraColumnsIgnored(t *testing.T) {
	_, meta := fitted(t)
	tbl := strokeTable(t)
	extra := tbl.Clone()
	extra.AddColumn("comment", "free text")

	got, err := Transform(meta, extra)
	require.NoError(t, err)
	want, err := Transform(meta, tbl)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPredict_StructuralErrors(t *testing.T) {
	m, meta := fitted(t)
	tbl := strokeTable(t)

	_, err := Predict(m, meta, set(t, tbl, "age", 0, "old"))
	assert.ErrorIs(t, err, ErrNonNumeric)

	_, err = Predict(m, nil, tbl)
	assert.ErrorIs(t, err, ErrNilMetadata)

	narrow := model.NewKNN(3)
	require.NoError(t, narrow.Fit([][]float64{{0}, {1}}, []int{0, 1}))
	_, err = Predict(narrow, meta, tbl)
	assert.ErrorIs(t, err, model.ErrDimension)

	_, err = PredictProba(labelOnly{}, meta, tbl)
	assert.ErrorIs(t, err, ErrNoProbabilities)
}

func TestMetadata_WithModelCopies(t *testing.T) {
	_, meta := fitted(t)
	named := meta.WithModel("knn")
	assert.Equal(t, "knn", named.ModelName)
	assert.Empty(t, meta.ModelName)
}
