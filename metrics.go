package easyfuse

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// driverMetrics is the per-operation instrumentation SPEC_FULL.md §12
// wires onto the driver, in the same spirit as gcsfuse's own wrapping of
// jacobsa/fuse operations with measurement hooks. It is additive
// instrumentation, not part of THE CORE.
type driverMetrics struct {
	registry *prometheus.Registry
	ops      *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newDriverMetrics() *driverMetrics {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "easyfuse",
		Name:      "ops_total",
		Help:      "Count of driver operations by name and result.",
	}, []string{"op", "result"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "easyfuse",
		Name:      "op_duration_seconds",
		Help:      "Handler dispatch latency by operation name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(ops, latency)

	return &driverMetrics{registry: registry, ops: ops, latency: latency}
}

// Registry exposes the driver's own prometheus.Registry so a caller can
// serve it directly or gather it into a larger registry.
func (m *driverMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *driverMetrics) observe(op string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = errnoOf(err).Error()
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}
