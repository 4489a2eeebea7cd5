package magink

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magink/magink/metrics"
)

// Metrics holds contract interaction metrics.
type Metrics struct {
	CallsTotal          *prometheus.CounterVec
	CallDuration        *prometheus.HistogramVec
	DryRunsTotal        *prometheus.CounterVec
	TransactionsTotal   *prometheus.CounterVec
	ConfirmationLatency *prometheus.HistogramVec
}

// NewMetrics creates contract metrics on the global registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(metrics.NewComponentRegistry("magink", "contract"))
}

// NewMetricsWith creates contract metrics on reg.
func NewMetricsWith(reg *metrics.ComponentRegistry) *Metrics {
	return &Metrics{
		CallsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "calls_total",
			Help: "Read-only contract calls by method and outcome",
		}, []string{"method", "outcome"}),

		CallDuration: reg.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "call_duration_seconds",
			Help:    "Latency of read-only contract calls",
			Buckets: metrics.LatencyBuckets,
		}, []string{"method"}),

		DryRunsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "dry_runs_total",
			Help: "Simulated transactions by method and outcome",
		}, []string{"method", "outcome"}),

		TransactionsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Sent transactions by method and final status",
		}, []string{"method", "status"}),

		ConfirmationLatency: reg.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "confirmation_seconds",
			Help:    "Time from broadcast to receipt",
			Buckets: metrics.ConfirmationBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) RecordCall(method string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(method, outcome(ok)).Inc()
	m.CallDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) RecordDryRun(method string, ok bool) {
	if m == nil {
		return
	}
	m.DryRunsTotal.WithLabelValues(method, outcome(ok)).Inc()
}

func (m *Metrics) RecordTransaction(method string, status TxStatus) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(method, string(status)).Inc()
}

func (m *Metrics) ObserveConfirmation(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.ConfirmationLatency.WithLabelValues(method).Observe(d.Seconds())
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
