package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownModel is returned for names that are not in the registry or
// whose backend was not compiled in.
var ErrUnknownModel = errors.New("unknown or unavailable model")

// Kind enumerates the classifiers the registry can build.
type Kind int

const (
	KindRandomForest Kind = iota
	KindLogisticRegression
	KindSVM
	KindKNN
	KindNaiveBayes
	KindXGBoost
	KindCatBoost
)

var kindNames = [...]string{
	KindRandomForest:       "randomforest",
	KindLogisticRegression: "logisticregression",
	KindSVM:                "svm",
	KindKNN:                "knn",
	KindNaiveBayes:         "naivebayes",
	KindXGBoost:            "xgboost",
	KindCatBoost:           "catboost",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Factory builds an unfitted classifier with fixed hyperparameters.
type Factory func() Classifier

// Entry is one row of the capability table. A nil Factory marks a backend
// that did not register.
type Entry struct {
	Kind    Kind
	Factory Factory
}

// Enabled reports whether the entry can build a classifier.
func (e Entry) Enabled() bool { return e.Factory != nil }

// Registry maps model names to factories.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry over a fixed capability table.
func NewRegistry(entries []Entry) *Registry {
	return &Registry{entries: append([]Entry(nil), entries...)}
}

// Lookup returns the factory registered under name (case-insensitive).
func (r *Registry) Lookup(name string) (Factory, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, e := range r.entries {
		if e.Kind.String() == key {
			if !e.Enabled() {
				break
			}
			return e.Factory, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Available lists the enabled model names in table order.
func (r *Registry) Available() []string {
	var out []string
	for _, e := range r.entries {
		if e.Enabled() {
			out = append(out, e.Kind.String())
		}
	}
	return out
}

// Entries returns a copy of the capability table.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// optional backends add themselves here from init functions.
var (
	backendsMu sync.Mutex
	backends   = map[Kind]Factory{}
)

func registerBackend(k Kind, f Factory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[k] = f
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry. Its capability table is built
// on first use, after every init function has run.
func Default() *Registry {
	defaultOnce.Do(func() {
		backendsMu.Lock()
		defer backendsMu.Unlock()
		defaultRegistry = NewRegistry([]Entry{
			{Kind: KindRandomForest, Factory: func() Classifier { return NewRandomForest() }},
			{Kind: KindLogisticRegression, Factory: func() Classifier { return NewLogisticRegression() }},
			{Kind: KindSVM, Factory: func() Classifier { return NewSVM() }},
			{Kind: KindKNN, Factory: func() Classifier { return NewKNN(3) }},
			{Kind: KindNaiveBayes, Factory: func() Classifier { return NewGaussianNB() }},
			{Kind: KindXGBoost, Factory: backends[KindXGBoost]},
			{Kind: KindCatBoost, Factory: backends[KindCatBoost]},
		})
	})
	return defaultRegistry
}

// Lookup resolves name against the default registry.
func Lookup(name string) (Factory, error) { return Default().Lookup(name) }

// Available lists the models the default registry can build.
func Available() []string { return Default().Available() }
