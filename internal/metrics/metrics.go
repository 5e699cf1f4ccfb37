// Package metrics provides Prometheus metrics collection for the
// FinSentinal service. It defines all prediction, explanation, lifecycle,
// and persistence metrics exposed via the Prometheus endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions        prometheus.Counter   // Total number of predictions served
	PredictionFailures prometheus.Counter   // Total number of failed prediction requests
	PredictionLatency  prometheus.Histogram // Prediction latency in seconds, end to end
	PredictionScores   prometheus.Histogram // Distribution of predicted distress probabilities

	// Explanation metrics
	Explanations        prometheus.Counter // Total number of explanations served
	ExplanationFailures prometheus.Counter // Total number of failed explanation requests

	// Lifecycle metrics
	Retrains        prometheus.Counter // Total number of completed retraining runs
	RetrainFailures prometheus.Counter // Total number of failed retraining runs
	Restores        prometheus.Counter // Total number of archive restores

	// Persistence and upstream metrics
	HistoryWriteFailures prometheus.Counter // History log writes that failed and were dropped
	LiveDataFetches      prometheus.Counter // Live quote fetches attempted
	LiveDataFailures     prometheus.Counter // Live quote fetches that failed

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing, keeps test runs isolated from the global registry).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed prediction requests",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of predicted distress probabilities",
			Buckets: prometheus.LinearBuckets(0.0, 0.1, 11),
		}),
		Explanations: factory.NewCounter(prometheus.CounterOpts{
			Name: "explanations_total",
			Help: "Total number of explanations served",
		}),
		ExplanationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "explanation_failures_total",
			Help: "Total number of failed explanation requests",
		}),
		Retrains: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_retrains_total",
			Help: "Total number of completed retraining runs",
		}),
		RetrainFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_retrain_failures_total",
			Help: "Total number of failed retraining runs",
		}),
		Restores: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_restores_total",
			Help: "Total number of archive restores",
		}),
		HistoryWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_write_failures_total",
			Help: "History log writes that failed and were dropped",
		}),
		LiveDataFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "live_data_fetches_total",
			Help: "Live quote fetches attempted",
		}),
		LiveDataFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "live_data_failures_total",
			Help: "Live quote fetches that failed",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
