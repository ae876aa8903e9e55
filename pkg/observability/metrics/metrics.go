package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_http_requests_total",
			Help: "HTTP requests served, by route template and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_predictions_total",
			Help: "Predictions persisted, by risk level.",
		},
		[]string{"risk_level"},
	)

	PredictionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_prediction_failures_total",
			Help: "Prediction runs that did not persist a result, by reason.",
		},
		[]string{"reason"}, // not_found|model|store
	)

	PredictionScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_prediction_score",
			Help:    "Distribution of predicted progression scores.",
			Buckets: []float64{25, 50, 75, 100, 120, 150, 175, 200, 250, 300, 350},
		},
	)

	InferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_model_inference_seconds",
			Help:    "Model inference latency in seconds.",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Collectors are
// usable before Init; they are simply not exported.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequests,
			HTTPDuration,
			Predictions,
			PredictionFailures,
			PredictionScore,
			InferenceDuration,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordPrediction(riskLevel string, score float64, inference time.Duration) {
	Predictions.WithLabelValues(riskLevel).Inc()
	PredictionScore.Observe(score)
	InferenceDuration.Observe(inference.Seconds())
}

func RecordPredictionFailure(reason string) {
	PredictionFailures.WithLabelValues(reason).Inc()
}
