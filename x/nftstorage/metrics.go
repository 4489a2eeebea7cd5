package nftstorage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magink/magink/metrics"
)

// Metrics tracks metadata uploads.
type Metrics struct {
	UploadsTotal   *prometheus.CounterVec
	UploadDuration prometheus.Histogram
	UploadSize     prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("magink", "nftstorage")

	return &Metrics{
		UploadsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Metadata uploads by outcome",
		}, []string{"outcome"}),

		UploadDuration: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_duration_seconds",
			Help:    "Latency of metadata uploads",
			Buckets: metrics.LatencyBuckets,
		}),

		UploadSize: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_size_bytes",
			Help:    "Size of multipart upload bodies",
			Buckets: metrics.SizeBuckets,
		}),
	}
}

func (m *Metrics) RecordUpload(ok bool, d time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.UploadsTotal.WithLabelValues(outcome).Inc()
	m.UploadDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveSize(n int) {
	m.UploadSize.Observe(float64(n))
}
