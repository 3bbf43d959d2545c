package board

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krisvansteen/Dashboards/metric"
)

// cacheMetrics holds Prometheus metrics for the topic cache
type cacheMetrics struct {
	putsTotal      *prometheus.CounterVec
	snapshotsTotal prometheus.Counter
	resetsTotal    prometheus.Counter
	topics         prometheus.Gauge
}

// WithMetrics registers cache metrics on the given registry. A nil registry
// leaves metrics disabled.
func WithMetrics(registry *metric.Registry) Option {
	return func(c *Cache) {
		if registry == nil {
			return
		}
		m := &cacheMetrics{
			putsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "liveboard",
				Subsystem: "board",
				Name:      "puts_total",
				Help:      "Total topic updates applied to the cache",
			}, []string{"topic"}),
			snapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "liveboard",
				Subsystem: "board",
				Name:      "snapshots_total",
				Help:      "Total snapshot reads",
			}),
			resetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "liveboard",
				Subsystem: "board",
				Name:      "resets_total",
				Help:      "Total administrative cache resets",
			}),
			topics: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "liveboard",
				Subsystem: "board",
				Name:      "topics",
				Help:      "Number of cached topics",
			}),
		}

		registry.MustRegister("board", "puts_total", m.putsTotal)
		registry.MustRegister("board", "snapshots_total", m.snapshotsTotal)
		registry.MustRegister("board", "resets_total", m.resetsTotal)
		registry.MustRegister("board", "topics", m.topics)

		c.metrics = m
	}
}

func (m *cacheMetrics) recordPut(topic string, topics int) {
	m.putsTotal.WithLabelValues(topic).Inc()
	m.topics.Set(float64(topics))
}

func (m *cacheMetrics) recordSnapshot() {
	m.snapshotsTotal.Inc()
}

func (m *cacheMetrics) recordReset() {
	m.resetsTotal.Inc()
	m.topics.Set(0)
}
