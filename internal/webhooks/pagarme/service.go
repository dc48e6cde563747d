package pagarmewebhook

import (
	"context"
	"fmt"

	"github.com/vendalivre/vendalivre-backend/internal/settlement"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/metrics"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
)

type reconciler interface {
	ReconcileFromWebhook(ctx context.Context, eventType, chargeID string) error
}

// Service routes verified Pagar.me webhook events into settlement.
type Service struct {
	settlement reconciler
	logg       *logger.Logger
	metrics    *metrics.SettlementMetrics
}

func NewService(settlementSvc settlement.Service, logg *logger.Logger, m *metrics.SettlementMetrics) (*Service, error) {
	if settlementSvc == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	return &Service{settlement: settlementSvc, logg: logg, metrics: m}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *pagarme.WebhookEvent) error {
	if event == nil || event.Data.ID == "" {
		s.count(eventType(event), "malformed")
		if s.logg != nil {
			s.logg.Warn(ctx, "webhook event without charge id")
		}
		return nil
	}

	if err := s.settlement.ReconcileFromWebhook(ctx, event.Type, event.Data.ID); err != nil {
		s.count(event.Type, "error")
		return err
	}
	s.count(event.Type, "processed")
	return nil
}

func (s *Service) count(event, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncWebhook(event, outcome)
}

func eventType(event *pagarme.WebhookEvent) string {
	if event == nil {
		return "unknown"
	}
	return event.Type
}
