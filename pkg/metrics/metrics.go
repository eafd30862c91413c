package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics counts payment webhook deliveries by outcome.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_received_total",
		Help: "Payment webhook deliveries received, by event type.",
	}, []string{"event_type"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Payment webhook processing outcomes.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(received, outcomes)
	return &WebhookMetrics{received: received, outcomes: outcomes}
}

// IncReceived increments the received counter for the event type.
func (m *WebhookMetrics) IncReceived(eventType string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncOutcome increments the outcome counter for the event type.
func (m *WebhookMetrics) IncOutcome(eventType, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// AccessMetrics counts access decisions by tier and result.
type AccessMetrics struct {
	decisions *prometheus.CounterVec
}

// NewAccessMetrics registers the access decision counter.
func NewAccessMetrics(reg prometheus.Registerer) *AccessMetrics {
	if reg == nil {
		return &AccessMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "access_decisions_total",
		Help: "Content access decisions, by tier and result.",
	}, []string{"tier", "result"})
	reg.MustRegister(decisions)
	return &AccessMetrics{decisions: decisions}
}

// IncDecision increments the decision counter.
func (m *AccessMetrics) IncDecision(tier, result string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(tier), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
