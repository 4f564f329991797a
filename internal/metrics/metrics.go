// Package metrics holds the Prometheus collectors for the broker and its HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Flow steps.
const (
	StepRegister    = "register"
	StepExchange    = "exchange"
	StepFollowing   = "following"
	StepSubscribe   = "subscribe"
	StepUnsubscribe = "unsubscribe"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	flowTransitions *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpInflight    prometheus.Gauge
	rateLimited     prometheus.Counter
}

// New creates the collectors on a private registry, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		flowTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fedisub_flow_transitions_total",
			Help: "Broker flow steps by outcome (kind of failure or ok).",
		}, []string{"step", "result"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fedisub_remote_call_duration_seconds",
			Help:    "Latency of calls to remote instances.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fedisub_http_requests_total",
			Help: "HTTP requests served, by route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fedisub_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fedisub_http_inflight_requests",
			Help: "Requests currently being served.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fedisub_rate_limited_total",
			Help: "Registration attempts rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		m.flowTransitions,
		m.remoteDuration,
		m.httpRequests,
		m.httpDuration,
		m.httpInflight,
		m.rateLimited,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// FlowTransitions exposes the transition counter for tests.
func (m *Metrics) FlowTransitions() *prometheus.CounterVec {
	return m.flowTransitions
}

// Transition records the outcome of one broker step.
func (m *Metrics) Transition(step, result string) {
	if m == nil {
		return
	}
	m.flowTransitions.WithLabelValues(step, result).Inc()
}

// ObserveRemote records the latency of a remote call.
func (m *Metrics) ObserveRemote(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.remoteDuration.WithLabelValues(step).Observe(d.Seconds())
}

// RateLimited counts one rejected registration attempt.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Inflight adjusts the in-flight gauge by delta.
func (m *Metrics) Inflight(delta float64) {
	if m == nil {
		return
	}
	m.httpInflight.Add(delta)
}
