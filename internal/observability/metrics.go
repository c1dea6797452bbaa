package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodcast"

// Metrics holds the Prometheus counters and histograms for the prediction API.
type Metrics struct {
	// Prediction pipeline metrics.
	PredictionRequests   *prometheus.CounterVec // labels: outcome={ok,unauthorized,invalid,upstream_error,persistence_error,error}
	PredictionsPersisted prometheus.Counter
	EventsPublished      *prometheus.CounterVec // labels: outcome={success,error}

	// Prediction service client metrics.
	MLAttempts        prometheus.Counter
	MLRequests        *prometheus.CounterVec // labels: outcome={success,error}
	MLRequestDuration prometheus.Histogram

	// Weather proxy metrics.
	WeatherFetches *prometheus.CounterVec // labels: outcome={success,failed}
	WeatherCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.PredictionRequests,
		m.PredictionsPersisted,
		m.EventsPublished,
		m.MLAttempts,
		m.MLRequests,
		m.MLRequestDuration,
		m.WeatherFetches,
		m.WeatherCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PredictionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_requests_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_persisted_total",
			Help:      "Prediction records written to the store.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_events_published_total",
			Help:      "Prediction events written to the event stream by outcome.",
		}, []string{"outcome"}),
		MLAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ml_attempts_total",
			Help:      "HTTP attempts made against the prediction service, retries included.",
		}),
		MLRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ml_requests_total",
			Help:      "Prediction service calls by final outcome.",
		}, []string{"outcome"}),
		MLRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ml_request_duration_seconds",
			Help:      "Duration of a single prediction service attempt.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetches_total",
			Help:      "BMKG forecast fetches by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather snapshot cache lookups by result.",
		}, []string{"result"}),
	}
}
