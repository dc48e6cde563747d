package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/internal/settlement"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
)

type stubExpiredPix struct {
	orders []models.Order
}

func (s *stubExpiredPix) FindPendingPixOrdersExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return s.orders, nil
}

type stubApplier struct {
	applied map[uuid.UUID]enums.OrderStatus
	opts    []settlement.ApplyOptions
}

func (s *stubApplier) ApplyStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, opts settlement.ApplyOptions) error {
	if s.applied == nil {
		s.applied = make(map[uuid.UUID]enums.OrderStatus)
	}
	s.applied[orderID] = target
	s.opts = append(s.opts, opts)
	return nil
}

func TestPixExpiryJobFailsExpiredOrders(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	orderID := uuid.New()
	applier := &stubApplier{}
	job, err := NewPixExpiryJob(PixExpiryJobParams{
		Logger:     logg,
		Orders:     &stubExpiredPix{orders: []models.Order{{ID: orderID}}},
		Settlement: applier,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if applier.applied[orderID] != enums.OrderStatusFailed {
		t.Fatalf("order not failed: %v", applier.applied)
	}
	opts := applier.opts[0]
	if opts.Source != settlement.SourceCron {
		t.Fatalf("unexpected source %q", opts.Source)
	}
	if opts.FailureReason == nil || *opts.FailureReason != pixExpiredReason {
		t.Fatalf("failure reason not recorded: %v", opts.FailureReason)
	}
}

func TestPixExpiryJobEmptySweep(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	applier := &stubApplier{}
	job, err := NewPixExpiryJob(PixExpiryJobParams{
		Logger:     logg,
		Orders:     &stubExpiredPix{},
		Settlement: applier,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(applier.applied) != 0 {
		t.Fatalf("nothing should be applied on an empty sweep")
	}
}
