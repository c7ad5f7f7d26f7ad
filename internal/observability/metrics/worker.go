package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	retryTotal    *prometheus.CounterVec
	retryDuration *prometheus.HistogramVec
	retryInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	retryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "worker",
			Name:      "document_retry_total",
			Help:      "Total reprocessed documents by status.",
		},
		[]string{"service", "status"},
	)
	retryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "worker",
			Name:      "document_retry_duration_seconds",
			Help:      "Document reprocessing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	retryInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docqa",
			Subsystem: "worker",
			Name:      "document_retry_in_flight",
			Help:      "Number of in-flight reprocessing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(retryTotal, retryDuration, retryInFlight)

	return &WorkerMetrics{
		registry:      registry,
		retryTotal:    retryTotal,
		retryDuration: retryDuration,
		retryInFlight: retryInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRetry() {
	m.retryInFlight.Inc()
}

func (m *WorkerMetrics) FinishRetry(service string, duration time.Duration, err error) {
	m.retryInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.retryTotal.WithLabelValues(service, status).Inc()
	m.retryDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
