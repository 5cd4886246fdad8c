// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Metrics is a set of collectors registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	relayAttempts         *prometheus.CounterVec
	submissions           *prometheus.CounterVec
	envelopeVerifications *prometheus.CounterVec
	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		relayAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_attempts_total",
			Help:      "Signed transaction relay attempts by attempt number and result.",
		}, []string{"attempt", "result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submitted transactions by outcome.",
		}, []string{"outcome"}),
		envelopeVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelope_verifications_total",
			Help:      "Envelope verifications by result (ok or the failure code).",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.relayAttempts,
		m.submissions,
		m.envelopeVerifications,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// RelayAttempt records one relay attempt. It satisfies ledger.RelayObserver.
func (m *Metrics) RelayAttempt(attempt int, err error) {
	m.relayAttempts.WithLabelValues(strconv.Itoa(attempt), result(err)).Inc()
}

// Submission records the final outcome of a submit request.
func (m *Metrics) Submission(err error) {
	outcome := "confirmed"
	if err != nil {
		outcome = "failed"
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// EnvelopeVerification records a verification result. code is empty on success.
func (m *Metrics) EnvelopeVerification(code string) {
	if code == "" {
		code = "ok"
	}
	m.envelopeVerifications.WithLabelValues(code).Inc()
}

// HTTPRequest records a served request. route is the router pattern, not the raw path.
func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
