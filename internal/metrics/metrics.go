// Package metrics holds the Prometheus collectors for assessments and the HTTP surface
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vortexwatch"

// Stage names recorded by the assessment pipeline
const (
	StageLocate       = "locate"
	StageClassify     = "classify"
	StageSuggest      = "suggest"
	StageResolve      = "resolve"
	StageNotify       = "notify"
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusUnavailable = "unavailable"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics records nothing.
type Metrics struct {
	assessmentsTotal   *prometheus.CounterVec
	assessmentDuration prometheus.Histogram
	verdictsTotal      *prometheus.CounterVec
	stageTotal         *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a metrics instance on its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		assessmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assessments_total",
				Help:      "Total number of policy assessments by result",
			},
			[]string{"result"},
		),

		assessmentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "assessment_duration_seconds",
				Help:      "End-to-end assessment latency in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
		),

		verdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Total number of classification verdicts by outcome",
			},
			[]string{"outcome"},
		),

		stageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_total",
				Help:      "Total number of pipeline stage executions by stage and status",
			},
			[]string{"stage", "status"},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.assessmentsTotal,
		m.assessmentDuration,
		m.verdictsTotal,
		m.stageTotal,
		m.stageDuration,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)

	return m
}

// RecordAssessment records a finished assessment
func (m *Metrics) RecordAssessment(result string, duration time.Duration) {
	if m == nil {
		return
	}

	m.assessmentsTotal.WithLabelValues(result).Inc()
	m.assessmentDuration.Observe(duration.Seconds())
}

// RecordVerdict records a classification outcome
func (m *Metrics) RecordVerdict(outcome string) {
	if m == nil {
		return
	}

	m.verdictsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage records one pipeline stage execution
func (m *Metrics) RecordStage(stage, status string, duration time.Duration) {
	if m == nil {
		return
	}

	m.stageTotal.WithLabelValues(stage, status).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}

	m.httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency labelled by the matched chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RecordHTTPRequest(r.Method, routePattern(r), strconv.Itoa(status), time.Since(start))
	})
}

// routePattern returns the matched route pattern, or "unmatched" for unknown paths
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return "unmatched"
}

// StageTimer measures a single pipeline stage
type StageTimer struct {
	start   time.Time
	metrics *Metrics
	stage   string
}

// NewStageTimer starts timing a stage
func (m *Metrics) NewStageTimer(stage string) *StageTimer {
	return &StageTimer{start: time.Now(), metrics: m, stage: stage}
}

// Done records the stage with the given status
func (st *StageTimer) Done(status string) {
	st.metrics.RecordStage(st.stage, status, time.Since(st.start))
}
