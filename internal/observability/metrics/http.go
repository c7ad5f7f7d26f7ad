package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatPath labels for RecordChatObservation.
const (
	RetrievalVector   = "vector"
	RetrievalFallback = "fallback"
	RetrievalNone     = "none"
	RetrievalDemo     = "demo"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal  *prometheus.CounterVec
	chatSourceChunks   *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	uploadsTotal       *prometheus.CounterVec
	uploadedFileBytes  *prometheus.HistogramVec
	processedChunks    *prometheus.HistogramVec
	placeholderEmbeds  *prometheus.CounterVec
	quotaDegradesTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total answered chat requests by retrieval path.",
		},
		[]string{"service", "retrieval"},
	)
	chatSourceChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "chat",
			Name:      "source_chunks",
			Help:      "Distribution of source chunks per answered chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "upload",
			Name:      "documents_total",
			Help:      "Total uploaded documents by outcome.",
		},
		[]string{"service", "status"},
	)
	uploadedFileBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "upload",
			Name:      "file_bytes",
			Help:      "Distribution of accepted upload sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 11),
		},
		[]string{"service"},
	)
	processedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "upload",
			Name:      "processed_chunks",
			Help:      "Distribution of persisted chunks per processed document.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 25},
		},
		[]string{"service"},
	)
	placeholderEmbeds := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "llm",
			Name:      "placeholder_embeddings_total",
			Help:      "Total embeddings served by the placeholder generator.",
		},
		[]string{"service", "reason"},
	)
	quotaDegradesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "llm",
			Name:      "quota_degradations_total",
			Help:      "Total requests degraded to demo output on quota errors.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatSourceChunks,
		chatDuration,
		uploadsTotal,
		uploadedFileBytes,
		processedChunks,
		placeholderEmbeds,
		quotaDegradesTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatRequestsTotal:  chatRequestsTotal,
		chatSourceChunks:   chatSourceChunks,
		chatDuration:       chatDuration,
		uploadsTotal:       uploadsTotal,
		uploadedFileBytes:  uploadedFileBytes,
		processedChunks:    processedChunks,
		placeholderEmbeds:  placeholderEmbeds,
		quotaDegradesTotal: quotaDegradesTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasSuffix(path, "/retry") && strings.HasPrefix(path, "/api/documents/"):
		return "/api/documents/{id}/retry"
	case strings.HasPrefix(path, "/api/documents/"):
		return "/api/documents/{id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChatObservation(service, retrieval string, sourceCount int, duration time.Duration) {
	if retrieval == "" {
		retrieval = "unknown"
	}
	m.chatRequestsTotal.WithLabelValues(service, retrieval).Inc()
	m.chatSourceChunks.WithLabelValues(service).Observe(float64(sourceCount))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordUpload(service string, fileBytes int64, chunkCount int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.uploadsTotal.WithLabelValues(service, status).Inc()
	if err == nil {
		m.uploadedFileBytes.WithLabelValues(service).Observe(float64(fileBytes))
		m.processedChunks.WithLabelValues(service).Observe(float64(chunkCount))
	}
}

func (m *HTTPServerMetrics) RecordPlaceholderEmbedding(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.placeholderEmbeds.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordQuotaDegradation(service, operation string) {
	if operation == "" {
		operation = "unknown"
	}
	m.quotaDegradesTotal.WithLabelValues(service, operation).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
