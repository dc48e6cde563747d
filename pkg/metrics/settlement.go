package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics tracks order status transitions and webhook traffic.
type SettlementMetrics struct {
	transitions *prometheus.CounterVec
	noops       *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
	gateway     *prometheus.HistogramVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_transitions_total",
		Help: "Order status transitions applied, labeled by target status and source.",
	}, []string{"status", "source"})
	noops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_noops_total",
		Help: "Stale or duplicate transition attempts that were ignored.",
	}, []string{"status", "source"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_webhooks_total",
		Help: "Gateway webhook deliveries, labeled by event type and outcome.",
	}, []string{"event", "outcome"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of outbound payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transitions, noops, webhooks, gateway)
	return &SettlementMetrics{
		transitions: transitions,
		noops:       noops,
		webhooks:    webhooks,
		gateway:     gateway,
	}
}

// IncTransition records an applied status transition.
func (s *SettlementMetrics) IncTransition(status, source string) {
	if s == nil || s.transitions == nil {
		return
	}
	s.transitions.WithLabelValues(normalizeLabel(status), normalizeLabel(source)).Inc()
}

// IncNoop records a transition attempt that lost the conditional update.
func (s *SettlementMetrics) IncNoop(status, source string) {
	if s == nil || s.noops == nil {
		return
	}
	s.noops.WithLabelValues(normalizeLabel(status), normalizeLabel(source)).Inc()
}

// IncWebhook records a webhook delivery outcome.
func (s *SettlementMetrics) IncWebhook(event, outcome string) {
	if s == nil || s.webhooks == nil {
		return
	}
	s.webhooks.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// ObserveGateway records the latency of an outbound gateway call.
func (s *SettlementMetrics) ObserveGateway(operation string, duration time.Duration) {
	if s == nil || s.gateway == nil {
		return
	}
	s.gateway.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}
