package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsRegistry is the registration surface the pipeline needs. Satisfied
// by metric.Registry.
type metricsRegistry interface {
	MustRegister(componentName, metricName string, collector prometheus.Collector)
}

type metrics struct {
	messagesReceived  *prometheus.CounterVec
	decodeErrors      prometheus.Counter
	commandsDiscarded prometheus.Counter
}

func newMetrics(registry metricsRegistry) *metrics {
	if registry == nil {
		return nil
	}

	m := &metrics{
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liveboard",
			Subsystem: "ingest",
			Name:      "messages_received_total",
			Help:      "Data messages accepted into the cache",
		}, []string{"topic"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveboard",
			Subsystem: "ingest",
			Name:      "decode_errors_total",
			Help:      "Payloads discarded because JSON decoding failed",
		}),
		commandsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveboard",
			Subsystem: "ingest",
			Name:      "commands_discarded_total",
			Help:      "Messages on delete-command topics ignored by ingestion",
		}),
	}

	registry.MustRegister("ingest", "messages_received", m.messagesReceived)
	registry.MustRegister("ingest", "decode_errors", m.decodeErrors)
	registry.MustRegister("ingest", "commands_discarded", m.commandsDiscarded)

	return m
}
