// Package metrics provides Prometheus instrumentation for training and
// inference runs. A CLI run is short-lived, so instead of serving an
// endpoint the collected values are written to a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the toolkit.
type Metrics struct {
	// Training metrics
	Fits        *prometheus.CounterVec   // Completed fits per model
	FitFailures *prometheus.CounterVec   // Fits that returned an error per model
	FitDuration *prometheus.HistogramVec // Fit wall time per model

	// Evaluation metrics
	Accuracy *prometheus.GaugeVec // Last test accuracy per model
	F1       *prometheus.GaugeVec // Last macro F1 per model

	// Inference metrics
	Predictions       prometheus.Counter // Records scored
	PredictionFailure prometheus.Counter // Inference calls that failed

	gatherer prometheus.Gatherer
}

// New creates metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry creates metrics registered with registerer. gatherer is
// what WriteTextfile exports and may be nil when no export is needed.
func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Fits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strokeml_fits_total",
			Help: "Total number of completed model fits",
		}, []string{"model"}),
		FitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strokeml_fit_failures_total",
			Help: "Total number of model fits that returned an error",
		}, []string{"model"}),
		FitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "strokeml_fit_duration_seconds",
			Help:    "Model fit duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"model"}),
		Accuracy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "strokeml_test_accuracy",
			Help: "Accuracy on the held-out split of the last evaluation",
		}, []string{"model"}),
		F1: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "strokeml_test_f1_macro",
			Help: "Macro F1 on the held-out split of the last evaluation",
		}, []string{"model"}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "strokeml_predictions_total",
			Help: "Total number of records scored",
		}),
		PredictionFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "strokeml_prediction_failures_total",
			Help: "Total number of failed inference calls",
		}),
		gatherer: gatherer,
	}
}

// ObserveFit records one fit attempt.
func (m *Metrics) ObserveFit(model string, d time.Duration, err error) {
	if err != nil {
		m.FitFailures.WithLabelValues(model).Inc()
		return
	}
	m.Fits.WithLabelValues(model).Inc()
	m.FitDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveEvaluation records the test scores of a fitted model.
func (m *Metrics) ObserveEvaluation(model string, accuracy, f1 float64) {
	m.Accuracy.WithLabelValues(model).Set(accuracy)
	m.F1.WithLabelValues(model).Set(f1)
}

// ObservePredictions records an inference call over n records.
func (m *Metrics) ObservePredictions(n int, err error) {
	if err != nil {
		m.PredictionFailure.Inc()
		return
	}
	m.Predictions.Add(float64(n))
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if m.gatherer == nil {
		return fmt.Errorf("metrics: no gatherer to export")
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
