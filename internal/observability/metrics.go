// Package observability exposes the service's Prometheus metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one service instance. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	recomputeTotal    *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	recomputeDays     prometheus.Histogram
	aggregationsTotal *prometheus.CounterVec
	checkInsTotal     *prometheus.CounterVec
	whooshTotal       *prometheus.CounterVec
}

// NewMetrics builds the collectors on a private registry so that several
// instances (tests) never collide on registration.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		recomputeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tdee_recompute_total",
			Help: "Chain recomputations by trigger and result.",
		}, []string{"trigger", "result"}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tdee_recompute_duration_seconds",
			Help:    "Wall time of one chain recomputation including persistence.",
			Buckets: prometheus.DefBuckets,
		}),
		recomputeDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tdee_recompute_days",
			Help:    "Number of days folded per recomputation.",
			Buckets: []float64{1, 7, 14, 30, 60, 90, 180, 365},
		}),
		aggregationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tdee_aggregations_total",
			Help: "Daily record aggregations by resulting status.",
		}, []string{"status"}),
		checkInsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tdee_checkins_built_total",
			Help: "Weekly check-ins built by eligibility.",
		}, []string{"eligible"}),
		whooshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tdee_whoosh_detected_total",
			Help: "Water-weight swings dampened by severity.",
		}, []string{"severity"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.recomputeTotal,
		m.recomputeDuration,
		m.recomputeDays,
		m.aggregationsTotal,
		m.checkInsTotal,
		m.whooshTotal,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Recompute records one finished chain recomputation.
func (m *Metrics) Recompute(trigger string, days int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.recomputeTotal.WithLabelValues(trigger, result).Inc()
	m.recomputeDuration.Observe(duration.Seconds())
	if err == nil {
		m.recomputeDays.Observe(float64(days))
	}
}

func (m *Metrics) Aggregated(status string) {
	if m == nil {
		return
	}
	m.aggregationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) CheckInBuilt(eligible bool) {
	if m == nil {
		return
	}
	m.checkInsTotal.WithLabelValues(strconv.FormatBool(eligible)).Inc()
}

func (m *Metrics) Whoosh(severity string) {
	if m == nil {
		return
	}
	m.whooshTotal.WithLabelValues(severity).Inc()
}
