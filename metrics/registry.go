package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// GetRegistry returns the process-wide registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	})
	return registry
}

// ComponentRegistry creates collectors under a fixed namespace/subsystem and
// registers them with a prometheus registerer.
type ComponentRegistry struct {
	namespace  string
	subsystem  string
	registerer prometheus.Registerer
}

// NewComponentRegistry registers with the global registry.
func NewComponentRegistry(namespace, subsystem string) *ComponentRegistry {
	return NewComponentRegistryWith(GetRegistry(), namespace, subsystem)
}

// NewComponentRegistryWith registers with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewComponentRegistryWith(reg prometheus.Registerer, namespace, subsystem string) *ComponentRegistry {
	return &ComponentRegistry{namespace: namespace, subsystem: subsystem, registerer: reg}
}

func (r *ComponentRegistry) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	return register(r.registerer, prometheus.NewCounter(opts))
}

func (r *ComponentRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	return register(r.registerer, prometheus.NewCounterVec(opts, labels))
}

func (r *ComponentRegistry) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	return register(r.registerer, prometheus.NewGauge(opts))
}

func (r *ComponentRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	return register(r.registerer, prometheus.NewGaugeVec(opts, labels))
}

func (r *ComponentRegistry) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	return register(r.registerer, prometheus.NewHistogram(opts))
}

func (r *ComponentRegistry) NewHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	opts.Namespace, opts.Subsystem = r.namespace, r.subsystem
	return register(r.registerer, prometheus.NewHistogramVec(opts, labels))
}

// register returns the already registered collector when an identical one
// exists, so components can be constructed more than once per process.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
