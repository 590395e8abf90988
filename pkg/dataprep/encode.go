// Package dataprep holds the fitted preprocessing steps that turn a raw
// table into model input: categorical encoding, minority oversampling and
// chi-squared feature selection.
package dataprep

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnseen is returned by LabelEncoder.Transform for a value that was not
// present during Fit.
var ErrUnseen = errors.New("dataprep: value not seen during fit")

// LabelEncoder encodes categories as integers. Classes are kept sorted so a
// value's code is its index in Classes.
type LabelEncoder struct {
	Classes []string
}

func NewLabelEncoder() *LabelEncoder { return &LabelEncoder{} }

// Fit learns the sorted set of distinct values.
func (e *LabelEncoder) Fit(data []string) {
	unique := map[string]struct{}{}
	for _, v := range data {
		unique[v] = struct{}{}
	}
	e.Classes = make([]string, 0, len(unique))
	for v := range unique {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)
}

// Code returns the integer code of v and whether v is a known class.
func (e *LabelEncoder) Code(v string) (int, bool) {
	i := sort.SearchStrings(e.Classes, v)
	if i < len(e.Classes) && e.Classes[i] == v {
		return i, true
	}
	return 0, false
}

// Transform encodes data, failing on the first unseen value.
func (e *LabelEncoder) Transform(data []string) ([]int, error) {
	out := make([]int, len(data))
	for i, v := range data {
		c, ok := e.Code(v)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnseen, v)
		}
		out[i] = c
	}
	return out, nil
}

// FitTransform fits on data and encodes it.
func (e *LabelEncoder) FitTransform(data []string) []int {
	e.Fit(data)
	out, _ := e.Transform(data)
	return out
}

// TransformOrFirst encodes data, mapping any unseen value to the first known
// class (code 0). It returns the codes and how many values were replaced.
func (e *LabelEncoder) TransformOrFirst(data []string) ([]int, int) {
	out := make([]int, len(data))
	replaced := 0
	for i, v := range data {
		c, ok := e.Code(v)
		if !ok {
			replaced++
		}
		out[i] = c
	}
	return out, replaced
}
