package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSettlementMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSettlementMetrics(reg)

	metrics.IncTransition("paid", "webhook")
	metrics.IncTransition("paid", "webhook")
	metrics.IncNoop("paid", "polling")
	metrics.IncWebhook("charge.paid", "applied")
	metrics.ObserveGateway("create_order", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "settlement_transitions_total", "status", "paid"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected transitions=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "settlement_noops_total", "source", "polling"); err != nil {
		t.Fatalf("fetch noops: %v", err)
	} else if got != 1 {
		t.Fatalf("expected noops=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "settlement_webhooks_total", "event", "charge.paid"); err != nil {
		t.Fatalf("fetch webhooks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected webhooks=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "gateway_request_duration_seconds", "operation", "create_order"); err != nil {
		t.Fatalf("fetch gateway: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected gateway sum > 0, got %f", got)
	}
}

func TestSettlementMetricsNilSafe(t *testing.T) {
	var metrics *SettlementMetrics
	metrics.IncTransition("paid", "webhook")
	metrics.IncNoop("paid", "webhook")
	metrics.IncWebhook("charge.paid", "ignored")
	metrics.ObserveGateway("get_order", time.Millisecond)
}
