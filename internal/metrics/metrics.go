// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/authflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	AuthSteps        *prometheus.CounterVec
	CouponsApplied   *prometheus.CounterVec
	CheckoutsStarted *prometheus.CounterVec
	ReceiptPolls     *prometheus.CounterVec
	ReceiptAttempts  prometheus.Histogram
}

// New creates a Metrics instance registered on its own registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AuthSteps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_steps_total",
				Help: "Auth flow submissions by submitted step and decided action",
			},
			[]string{"step", "action"}, // advance, inline, navigate, finish
		),
		CouponsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coupons_applied_total",
				Help: "Basket coupon updates by result",
			},
			[]string{"result"}, // applied, cleared, rejected, error
		),
		CheckoutsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkouts_started_total",
				Help: "Checkout attempts by kind and result",
			},
			[]string{"kind", "result"}, // basket, bulk
		),
		ReceiptPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_waits_total",
				Help: "Receipt waits by how they ended",
			},
			[]string{"result"},
		),
		ReceiptAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "receipt_poll_attempts",
			Help:    "Status polls needed per receipt wait",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 40},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAuthStep implements authflow.Observer.
func (m *Metrics) ObserveAuthStep(submitted authflow.State, out authflow.Outcome) {
	m.AuthSteps.WithLabelValues(string(submitted), out.Action.String()).Inc()
}

// CouponApplied records a basket coupon update.
func (m *Metrics) CouponApplied(result string) {
	m.CouponsApplied.WithLabelValues(result).Inc()
}

// CheckoutStarted records a checkout attempt.
func (m *Metrics) CheckoutStarted(kind, result string) {
	m.CheckoutsStarted.WithLabelValues(kind, result).Inc()
}

// ObserveReceiptPoll records how a receipt wait ended.
func (m *Metrics) ObserveReceiptPoll(result string, attempts int) {
	m.ReceiptPolls.WithLabelValues(result).Inc()
	m.ReceiptAttempts.Observe(float64(attempts))
}
