package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes engine counters for scraping.
type Metrics struct {
	TrainingsTotal   *prometheus.CounterVec
	TrainingSeconds  prometheus.Histogram
	PredictionsTotal *prometheus.CounterVec
	CacheHitsTotal   prometheus.Counter
}

// NewMetrics registers the engine metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TrainingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_trainings_total",
			Help: "Training runs by entity and outcome.",
		}, []string{"entity", "status"}),
		TrainingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_training_seconds",
			Help:    "Wall-clock duration of training runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_predictions_total",
			Help: "Forecast requests by entity and outcome.",
		}, []string{"entity", "status"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "forecast_cache_hits_total",
			Help: "Forecast requests served from the in-memory cache.",
		}),
	}
}
