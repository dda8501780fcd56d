// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Adapter metrics
	QuotesTotal    *prometheus.CounterVec
	SwapsTotal     *prometheus.CounterVec
	SwapDuration   *prometheus.HistogramVec
	PoolCandidates *prometheus.HistogramVec

	// Fee metrics
	FeeTransfers *prometheus.CounterVec
	FeeLamports  *prometheus.CounterVec

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	registry prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance registered on reg. A nil reg
// uses a private registry, which keeps repeated construction in tests safe.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "solana_swap"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		QuotesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "quotes_total",
			Help:      "Total number of quotes by venue and status",
		}, []string{"venue", "status"}),
		SwapsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "swaps_total",
			Help:      "Total number of submitted swaps by venue, side and status",
		}, []string{"venue", "side", "status"}),
		SwapDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "swap_duration_seconds",
			Help:      "Time from request to submitted signature",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"venue"}),
		PoolCandidates: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "locator",
			Name:      "pool_candidates",
			Help:      "Number of matching pools considered per lookup",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"venue"}),

		FeeTransfers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fee",
			Name:      "transfers_total",
			Help:      "Total number of fee transfers by recipient kind",
		}, []string{"kind"}),
		FeeLamports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fee",
			Name:      "lamports_total",
			Help:      "Total lamports transferred as fees by recipient kind",
		}, []string{"kind"}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),

		registry: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// DefaultMetrics is the process-wide metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// Handler serves DefaultMetrics.
func Handler() http.Handler {
	return DefaultMetrics.Handler()
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// RecordQuote counts a quote attempt.
func (m *Metrics) RecordQuote(venue string, err error) {
	m.QuotesTotal.WithLabelValues(venue, status(err)).Inc()
}

// RecordSwap counts a swap attempt and its latency.
func (m *Metrics) RecordSwap(venue, side string, elapsed time.Duration, err error) {
	m.SwapsTotal.WithLabelValues(venue, side, status(err)).Inc()
	if err == nil {
		m.SwapDuration.WithLabelValues(venue).Observe(elapsed.Seconds())
	}
}

// RecordPoolCandidates records how many pools a lookup matched.
func (m *Metrics) RecordPoolCandidates(venue string, n int) {
	m.PoolCandidates.WithLabelValues(venue).Observe(float64(n))
}

// RecordFeeTransfer records one fee transfer.
func (m *Metrics) RecordFeeTransfer(referral bool, lamports uint64) {
	kind := "service"
	if referral {
		kind = "referral"
	}
	m.FeeTransfers.WithLabelValues(kind).Inc()
	m.FeeLamports.WithLabelValues(kind).Add(float64(lamports))
}

// ObserveRPC records an RPC call. Its signature matches the RPC client's
// call observer hook.
func (m *Metrics) ObserveRPC(method string, elapsed time.Duration, err error) {
	m.RPCCallLatency.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest counts a served request.
func (m *Metrics) RecordHTTPRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, http.StatusText(code)).Inc()
}
