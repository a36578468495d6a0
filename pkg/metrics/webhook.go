package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed webhook events.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// WebhookMetrics records marketplace webhook processing counters.
type WebhookMetrics struct {
	events       *prometheus.CounterVec
	fetchFailure prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comanda_ifood_webhook_events_total",
		Help: "Marketplace webhook events by lifecycle action and outcome.",
	}, []string{"action", "outcome"})
	fetchFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comanda_ifood_detail_fetch_failures_total",
		Help: "Order detail fetches that fell back to webhook metadata.",
	})
	reg.MustRegister(events, fetchFailure)
	return &WebhookMetrics{
		events:       events,
		fetchFailure: fetchFailure,
	}
}

// IncEvent increments the event counter for the given action/outcome pair.
func (m *WebhookMetrics) IncEvent(action, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.events.WithLabelValues(action, outcome).Inc()
}

// IncDetailFetchFailure counts a degraded (metadata-only) order creation.
func (m *WebhookMetrics) IncDetailFetchFailure() {
	if m == nil || m.fetchFailure == nil {
		return
	}
	m.fetchFailure.Inc()
}
