// Package metrics collects Prometheus metrics for the HTTP API and exposes
// them for scraping.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/congo-pay/mockpay/internal/apperr"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// unmatchedRoute labels requests that no route handled. Raw paths would make
// the label set unbounded.
const unmatchedRoute = "unmatched"

// Recorder is the subset of metrics that services and middleware report.
type Recorder interface {
	RecordSignup()
	RecordLogin(success bool)
	RecordLoginRateLimited()
	RecordTransactionCreated()
	RecordTransactionDeleted()
}

// Nop discards every measurement.
type Nop struct{}

// RecordSignup does nothing.
func (Nop) RecordSignup() {}

// RecordLogin does nothing.
func (Nop) RecordLogin(bool) {}

// RecordLoginRateLimited does nothing.
func (Nop) RecordLoginRateLimited() {}

// RecordTransactionCreated does nothing.
func (Nop) RecordTransactionCreated() {}

// RecordTransactionDeleted does nothing.
func (Nop) RecordTransactionDeleted() {}

var _ Recorder = (*Collector)(nil)

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	signups        prometheus.Counter
	logins         *prometheus.CounterVec
	rateLimitHits  prometheus.Counter
	transactions   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockpay",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mockpay",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mockpay",
			Name:      "signups_total",
			Help:      "Number of registered users",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockpay",
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"result"}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mockpay",
			Name:      "login_rate_limit_hits_total",
			Help:      "Number of rate-limited login attempts",
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockpay",
			Name:      "transactions_total",
			Help:      "Transaction ledger events",
		}, []string{"event"}),
	}

	reg.MustRegister(
		c.requestTotal,
		c.requestLatency,
		c.signups,
		c.logins,
		c.rateLimitHits,
		c.transactions,
	)
	return c
}

// RecordSignup counts a registered user.
func (c *Collector) RecordSignup() { c.signups.Inc() }

// RecordLogin counts a login attempt by outcome.
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordLoginRateLimited counts a login rejected by the rate limiter.
func (c *Collector) RecordLoginRateLimited() { c.rateLimitHits.Inc() }

// RecordTransactionCreated counts a stored transaction.
func (c *Collector) RecordTransactionCreated() { c.transactions.WithLabelValues("created").Inc() }

// RecordTransactionDeleted counts a soft-deleted transaction.
func (c *Collector) RecordTransactionDeleted() { c.transactions.WithLabelValues("deleted").Inc() }

// Middleware records request counts and latency labelled by the matched route
// pattern, never by the raw request path. Label values outlive the request,
// so nothing taken from the request buffer is stored uncopied.
// Errors have not been rendered yet when the chain returns, so their status is
// derived the same way the error handler derives it.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status = apperr.Status(err)
		}
		route := unmatchedRoute
		if r := ctx.Route(); len(r.Handlers) > 0 && r.Method != "USE" {
			route = r.Path
		}
		labels := prometheus.Labels{
			"method": utils.CopyString(ctx.Method()),
			"route":  route,
			"status": strconv.Itoa(status),
		}
		c.requestTotal.With(labels).Inc()
		c.requestLatency.With(labels).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
