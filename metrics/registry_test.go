package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestComponentRegistry_ReusesExistingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewComponentRegistryWith(reg, "magink", "test")
	b := NewComponentRegistryWith(reg, "magink", "test")

	opts := prometheus.CounterOpts{Name: "things_total", Help: "things"}
	c1 := a.NewCounterVec(opts, []string{"kind"})
	c2 := b.NewCounterVec(opts, []string{"kind"})

	c1.WithLabelValues("x").Inc()
	c2.WithLabelValues("x").Inc()

	require.Equal(t, float64(2), testutil.ToFloat64(c1.WithLabelValues("x")))
}

func TestComponentRegistry_Namespacing(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewComponentRegistryWith(reg, "magink", "sub")
	g := r.NewGauge(prometheus.GaugeOpts{Name: "level", Help: "level"})
	g.Set(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "magink_sub_level", families[0].GetName())
}
