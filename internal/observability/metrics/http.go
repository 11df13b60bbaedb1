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

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	routerDecisionsTotal *prometheus.CounterVec
	routerDuration       *prometheus.HistogramVec
	routerEvidenceItems  *prometheus.HistogramVec
	routerNoEvidence     *prometheus.CounterVec
	routerFallbacks      *prometheus.CounterVec
	routerRetrievals     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ka",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ka",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ka",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	routerDecisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ka",
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Answered chat turns by routing decision tag.",
		},
		[]string{"service", "decision"},
	)
	routerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ka",
			Subsystem: "router",
			Name:      "answer_duration_seconds",
			Help:      "End-to-end answer duration per chat turn.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "decision"},
	)
	routerEvidenceItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ka",
			Subsystem: "router",
			Name:      "evidence_passages",
			Help:      "Distribution of evidence passages per answered turn.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service", "decision"},
	)
	routerNoEvidence := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ka",
			Subsystem: "router",
			Name:      "no_evidence_total",
			Help:      "Answered turns carrying no evidence at all.",
		},
		[]string{"service", "decision"},
	)

	routerFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ka",
			Subsystem: "router",
			Name:      "fallbacks_total",
			Help:      "Chat-fallback degradations by reason.",
		},
		[]string{"service", "reason"},
	)
	routerRetrievals := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ka",
			Subsystem: "router",
			Name:      "retrievals_total",
			Help:      "Index retrieval attempts by outcome (hit or no_context).",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		routerDecisionsTotal,
		routerDuration,
		routerEvidenceItems,
		routerNoEvidence,
		routerFallbacks,
		routerRetrievals,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		routerDecisionsTotal: routerDecisionsTotal,
		routerDuration:       routerDuration,
		routerEvidenceItems:  routerEvidenceItems,
		routerNoEvidence:     routerNoEvidence,
		routerFallbacks:      routerFallbacks,
		routerRetrievals:     routerRetrievals,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &metricsStatusRecorder{
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
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordRouterDecision tracks one answered turn: which source tag won, how
// long the turn took end to end, and how much evidence came back.
func (m *HTTPServerMetrics) RecordRouterDecision(service, decision string, evidenceCount int, duration time.Duration) {
	if decision == "" {
		decision = "unknown"
	}
	m.routerDecisionsTotal.WithLabelValues(service, decision).Inc()
	m.routerDuration.WithLabelValues(service, decision).Observe(duration.Seconds())
	m.routerEvidenceItems.WithLabelValues(service, decision).Observe(float64(evidenceCount))
	if evidenceCount == 0 {
		m.routerNoEvidence.WithLabelValues(service, decision).Inc()
	}
}

// RecordFallback counts one degradation to the chat fallback by its reason.
func (m *HTTPServerMetrics) RecordFallback(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.routerFallbacks.WithLabelValues(service, reason).Inc()
}

// RecordRetrievalOutcome counts one index retrieval attempt as a hit or a
// no-context miss.
func (m *HTTPServerMetrics) RecordRetrievalOutcome(service string, hit bool) {
	outcome := "hit"
	if !hit {
		outcome = "no_context"
	}
	m.routerRetrievals.WithLabelValues(service, outcome).Inc()
}

type metricsStatusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsStatusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *metricsStatusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *metricsStatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *metricsStatusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
