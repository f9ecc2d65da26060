package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queriesTotal      *prometheus.CounterVec
	retriesTotal      *prometheus.CounterVec
	noResultsTotal    *prometheus.CounterVec
	retrievalResults  *prometheus.HistogramVec
	retrievalDuration *prometheus.HistogramVec
	retrievalAttempts *prometheus.HistogramVec
	confidenceScores  *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscout",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscout",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docscout",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		},
	)
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscout",
			Subsystem: "retrieval",
			Name:      "queries_total",
			Help:      "Total retrieval queries by final quality tier.",
		},
		[]string{"service", "endpoint", "tier"},
	)
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscout",
			Subsystem: "retrieval",
			Name:      "retries_total",
			Help:      "Total queries that needed corrective retries.",
		},
		[]string{"service", "endpoint"},
	)
	noResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscout",
			Subsystem: "retrieval",
			Name:      "no_results_total",
			Help:      "Total queries that produced no results at all.",
		},
		[]string{"service", "endpoint"},
	)
	retrievalResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscout",
			Subsystem: "retrieval",
			Name:      "results",
			Help:      "Distribution of returned result counts.",
			Buckets:   []float64{0, 1, 3, 5, 8, 12, 20},
		},
		[]string{"service", "endpoint"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscout",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "End-to-end retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	retrievalAttempts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscout",
			Subsystem: "retrieval",
			Name:      "attempts",
			Help:      "Distribution of retrieval attempts per query.",
			Buckets:   []float64{1, 2, 3, 4},
		},
		[]string{"service", "endpoint"},
	)
	confidenceScores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscout",
			Subsystem: "retrieval",
			Name:      "confidence",
			Help:      "Distribution of confidence scores (0-100).",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queriesTotal,
		retriesTotal,
		noResultsTotal,
		retrievalResults,
		retrievalDuration,
		retrievalAttempts,
		confidenceScores,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		queriesTotal:      queriesTotal,
		retriesTotal:      retriesTotal,
		noResultsTotal:    noResultsTotal,
		retrievalResults:  retrievalResults,
		retrievalDuration: retrievalDuration,
		retrievalAttempts: retrievalAttempts,
		confidenceScores:  confidenceScores,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
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

func (m *HTTPServerMetrics) RecordRetrieval(service, endpoint, tier string, retried bool, attempts, resultCount, confidence int, duration time.Duration) {
	if tier == "" {
		tier = "unknown"
	}
	m.queriesTotal.WithLabelValues(service, endpoint, tier).Inc()
	m.retrievalResults.WithLabelValues(service, endpoint).Observe(float64(resultCount))
	m.retrievalDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	m.retrievalAttempts.WithLabelValues(service, endpoint).Observe(float64(attempts))
	m.confidenceScores.WithLabelValues(service, endpoint).Observe(float64(confidence))

	if retried {
		m.retriesTotal.WithLabelValues(service, endpoint).Inc()
	}
	if resultCount == 0 {
		m.noResultsTotal.WithLabelValues(service, endpoint).Inc()
	}
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
