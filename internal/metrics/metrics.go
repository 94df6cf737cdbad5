// Package metrics holds the Prometheus collectors of the bot and the HTTP
// server that exposes them next to a liveness probe.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "multipost_bot"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "updates_total",
			Help:      "Total number of inbound updates by kind",
		},
		[]string{"kind"},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deliveries_total",
			Help:      "Total number of post deliveries to channels",
		},
		[]string{"media_type", "status"},
	)

	ScheduledRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scheduled_runs_total",
			Help:      "Total number of scheduled entries fired",
		},
		[]string{"mode"},
	)

	PanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "panics_total",
			Help:      "Total number of recovered panics while handling updates",
		},
	)
)

// RecordUpdate counts an inbound update of the given kind.
func RecordUpdate(kind string) {
	UpdatesTotal.WithLabelValues(kind).Inc()
}

// RecordDelivery counts one send attempt. Text-only posts use media type "text".
func RecordDelivery(mediaType string, err error) {
	if mediaType == "" {
		mediaType = "text"
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	DeliveriesTotal.WithLabelValues(mediaType, status).Inc()
}

// RecordScheduledRun counts a fired scheduled entry.
func RecordScheduledRun(mode string) {
	ScheduledRunsTotal.WithLabelValues(mode).Inc()
}

// RecordPanic counts a recovered panic.
func RecordPanic() {
	PanicsTotal.Inc()
}
