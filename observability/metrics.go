package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPCMetrics records JSON-RPC activity segmented by ledger module and method.
type RPCMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// LedgerMetrics records domain-level counters the RPC layer cannot see, such
// as mints and withdrawals applied by the engines.
type LedgerMetrics struct {
	mints       prometheus.Counter
	uploads     prometheus.Counter
	withdrawals prometheus.Counter
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *RPCMetrics

	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Metrics returns the lazily-initialised RPC metrics registry.
func Metrics() *RPCMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &RPCMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sessions",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by module, method, and outcome.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sessions",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by module, method, and status.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "sessions",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
		}
		prometheus.MustRegister(
			rpcRegistry.requests,
			rpcRegistry.errors,
			rpcRegistry.latency,
		)
	})
	return rpcRegistry
}

// Observe records one JSON-RPC call. The status should be the HTTP status
// that was ultimately written to the response.
func (m *RPCMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// Ledger returns the lazily-initialised domain metrics registry.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sessions",
				Subsystem: "ledger",
				Name:      "mints_total",
				Help:      "Total successful video mints.",
			}),
			uploads: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sessions",
				Subsystem: "ledger",
				Name:      "uploads_total",
				Help:      "Total videos registered.",
			}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sessions",
				Subsystem: "ledger",
				Name:      "withdrawals_total",
				Help:      "Total treasury withdrawals executed.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.mints,
			ledgerRegistry.uploads,
			ledgerRegistry.withdrawals,
		)
	})
	return ledgerRegistry
}

// RecordMint increments the mint counter.
func (m *LedgerMetrics) RecordMint() {
	if m == nil {
		return
	}
	m.mints.Inc()
}

// RecordUpload increments the upload counter.
func (m *LedgerMetrics) RecordUpload() {
	if m == nil {
		return
	}
	m.uploads.Inc()
}

// RecordWithdrawal increments the withdrawal counter.
func (m *LedgerMetrics) RecordWithdrawal() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}
