package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type chatMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	completionDuration *prometheus.HistogramVec
	completionErrors   *prometheus.CounterVec

	uploadsTotal   *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *chatMetrics
	registry    *prometheus.Registry
)

func getMetrics() *chatMetrics {
	metricsOnce.Do(func() {
		registry = prometheus.NewRegistry()

		m := &chatMetrics{
			requestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_requests_total",
					Help: "Total chat requests by modality and status.",
				},
				[]string{"modality", "status"},
			),
			requestDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "chat_request_duration_seconds",
					Help:    "Chat request duration in seconds by modality.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"modality"},
			),
			completionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "llm_completion_duration_seconds",
					Help:    "Model completion duration in seconds by mode.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"mode"},
			),
			completionErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "llm_completion_errors_total",
					Help: "Total model completion errors by mode.",
				},
				[]string{"mode"},
			),
			uploadsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "uploads_total",
					Help: "Total file uploads by kind.",
				},
				[]string{"kind"},
			),
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "active_sessions",
					Help: "Current active session count.",
				},
			),
		}

		registry.MustRegister(
			m.requestsTotal,
			m.requestDuration,
			m.completionDuration,
			m.completionErrors,
			m.uploadsTotal,
			m.activeSessions,
		)

		metricsInst = m
	})
	return metricsInst
}

// EnsureRegistered forces metric registration. Safe to call multiple times.
func EnsureRegistered() {
	getMetrics()
}

// RecordRequest counts one chat request outcome and its duration.
func RecordRequest(modality, status string, d time.Duration) {
	m := getMetrics()
	m.requestsTotal.WithLabelValues(modality, status).Inc()
	m.requestDuration.WithLabelValues(modality).Observe(d.Seconds())
}

// RecordCompletion observes one model gateway call.
func RecordCompletion(mode string, d time.Duration, failed bool) {
	m := getMetrics()
	m.completionDuration.WithLabelValues(mode).Observe(d.Seconds())
	if failed {
		m.completionErrors.WithLabelValues(mode).Inc()
	}
}

// RecordUpload counts one accepted upload by kind.
func RecordUpload(kind string) {
	getMetrics().uploadsTotal.WithLabelValues(kind).Inc()
}

// SetActiveSessions sets the live session gauge.
func SetActiveSessions(n int) {
	getMetrics().activeSessions.Set(float64(n))
}

// Handler exposes the metrics registry over HTTP.
func Handler() http.Handler {
	getMetrics()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
