package notify

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsRegistry is the registration surface the hub needs. Satisfied by
// metric.Registry.
type metricsRegistry interface {
	MustRegister(componentName, metricName string, collector prometheus.Collector)
}

type metrics struct {
	clientsConnected prometheus.Gauge
	connectionsTotal prometheus.Counter
	eventsSent       prometheus.Counter
	eventsDropped    prometheus.Counter
}

func newMetrics(registry metricsRegistry) *metrics {
	if registry == nil {
		return nil
	}

	m := &metrics{
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "liveboard",
			Subsystem: "notify",
			Name:      "clients_connected",
			Help:      "Currently connected WebSocket viewers",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveboard",
			Subsystem: "notify",
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted",
		}),
		eventsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveboard",
			Subsystem: "notify",
			Name:      "events_sent_total",
			Help:      "Refresh events delivered to viewers",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveboard",
			Subsystem: "notify",
			Name:      "events_dropped_total",
			Help:      "Refresh events dropped from full client queues",
		}),
	}

	registry.MustRegister("notify", "clients_connected", m.clientsConnected)
	registry.MustRegister("notify", "connections_total", m.connectionsTotal)
	registry.MustRegister("notify", "events_sent", m.eventsSent)
	registry.MustRegister("notify", "events_dropped", m.eventsDropped)

	return m
}
