package pipeline

import (
	"fmt"

	"github.com/nameisahmedh/strokeprediction/pkg/data"
)

// DefaultCategorical lists the categorical columns of the stroke dataset.
var DefaultCategorical = []string{"gender", "ever_married", "work_type", "Residence_type", "smoking_status"}

// Schema describes the columns a model was trained on.
type Schema struct {
	Target       string
	Categorical  []string // encoded columns, in encoding order
	FeatureNames []string // feature matrix column order
}

// featureNames returns every column of tbl that is neither the target nor
// excluded, in table order.
func featureNames(tbl *data.Table, target string, exclude []string) []string {
	skip := map[string]bool{target: true}
	for _, c := range exclude {
		skip[c] = true
	}
	var out []string
	for _, c := range tbl.Columns {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// present keeps the names that are columns of tbl and not in drop.
func present(tbl *data.Table, names []string, drop ...string) []string {
	skip := map[string]bool{}
	for _, c := range drop {
		skip[c] = true
	}
	var out []string
	for _, c := range names {
		if tbl.Has(c) && !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// align adds a zero column for every feature tbl lacks and returns their
// names. tbl is modified.
func (s Schema) align(tbl *data.Table) []string {
	var added []string
	for _, name := range s.FeatureNames {
		if !tbl.Has(name) {
			tbl.AddColumn(name, "0")
			added = append(added, name)
		}
	}
	return added
}

func (s Schema) String() string {
	return fmt.Sprintf("target=%s features=%d categorical=%v", s.Target, len(s.FeatureNames), s.Categorical)
}
