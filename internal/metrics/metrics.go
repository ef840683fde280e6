// Package metrics exposes Prometheus collectors for the HTTP surface and
// invoice mutations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invoice_admin",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice_admin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invoice_admin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	invoiceMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice_admin",
			Subsystem: "invoices",
			Name:      "mutations_total",
			Help:      "Total number of invoice mutations.",
		},
		[]string{"action", "outcome"},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice_admin",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(httpInFlight, httpRequests, httpDuration, invoiceMutations, loginAttempts)
}

// IncrementInFlight marks the start of a request.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight marks the end of a request.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records a completed request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordInvoiceMutation counts a create/update/delete by outcome.
func RecordInvoiceMutation(action, outcome string) {
	invoiceMutations.WithLabelValues(action, outcome).Inc()
}

// RecordLoginAttempt counts a login attempt by outcome.
func RecordLoginAttempt(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// Handler serves the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
