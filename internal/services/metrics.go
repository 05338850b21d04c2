package services

import "github.com/prometheus/client_golang/prometheus"

var (
	webhookDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klix_webhook_dispatches_total",
			Help: "Webhook dispatch attempts by payload kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	webhookDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klix_webhook_queue_dropped_total",
			Help: "Fire-and-forget jobs dropped because the delivery queue was full or closed",
		},
		[]string{"kind"},
	)

	errorsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klix_errors_classified_total",
			Help: "Upstream errors handled, by taxonomy kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(webhookDispatches, webhookDropped, errorsClassified)
}

// outcome labels
const (
	outcomeIssued    = "issued"
	outcomeConfirmed = "confirmed"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

func recordDispatch(kind string, d Delivery, err error) {
	switch {
	case err != nil:
		webhookDispatches.WithLabelValues(kind, outcomeFailed).Inc()
	case d == Confirmed:
		webhookDispatches.WithLabelValues(kind, outcomeConfirmed).Inc()
	default:
		webhookDispatches.WithLabelValues(kind, outcomeIssued).Inc()
	}
}

func recordSkipped(kind string) {
	webhookDispatches.WithLabelValues(kind, outcomeSkipped).Inc()
}
