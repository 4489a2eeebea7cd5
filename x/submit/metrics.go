package submit

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magink/magink/metrics"
)

// Metrics tracks submissions.
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	InFlight         prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("magink", "submit")

	return &Metrics{
		SubmissionsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submissions by branch and outcome",
		}, []string{"branch", "outcome"}),

		InFlight: reg.NewGauge(prometheus.GaugeOpts{
			Name: "in_flight",
			Help: "Submissions currently running",
		}),
	}
}

func (m *Metrics) RecordSubmission(branch Branch, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SubmissionsTotal.WithLabelValues(string(branch), outcome).Inc()
}
