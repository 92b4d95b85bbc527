package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed_total",
		Help: "Billing webhook events reconciled successfully, by event type.",
	}, []string{"event_type"})

	WebhookEventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_failed_total",
		Help: "Billing webhook events that failed reconciliation, by event type.",
	}, []string{"event_type"})

	WebhookEventsReprocessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_reprocessed_total",
		Help: "Manual reprocessing attempts of stored webhook events.",
	})
)
