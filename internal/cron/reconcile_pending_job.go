package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vendalivre/vendalivre-backend/internal/settlement"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
)

const (
	defaultReconcileBatchSize = 50
	// Pending orders younger than this are still racing the synchronous
	// checkout response and the webhook; the sweep leaves them alone.
	defaultReconcileGrace = 2 * time.Minute
)

type pendingOrderSource interface {
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderReconciler interface {
	ReconcileByPolling(ctx context.Context, orderID uuid.UUID, source string) (enums.OrderStatus, error)
}

// ReconcilePendingJobParams configure the pending order sweep.
type ReconcilePendingJobParams struct {
	Logger     *logger.Logger
	Orders     pendingOrderSource
	Settlement orderReconciler
	BatchSize  int
	Grace      time.Duration
}

// NewReconcilePendingJob builds the job that polls the gateway for orders
// stuck in pending, the safety net when webhooks are lost.
func NewReconcilePendingJob(params ReconcilePendingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order source required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultReconcileGrace
	}
	return &reconcilePendingJob{
		logg:       params.Logger,
		orders:     params.Orders,
		settlement: params.Settlement,
		batchSize:  batchSize,
		grace:      grace,
		now:        time.Now,
	}, nil
}

type reconcilePendingJob struct {
	logg       *logger.Logger
	orders     pendingOrderSource
	settlement orderReconciler
	batchSize  int
	grace      time.Duration
	now        func() time.Time
}

func (j *reconcilePendingJob) Name() string { return "reconcile-pending" }

func (j *reconcilePendingJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	orders, err := j.orders.FindPendingOrdersBefore(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query pending orders: %w", err)
	}

	var errs []error
	settled := 0
	for _, order := range orders {
		status, err := j.settlement.ReconcileByPolling(ctx, order.ID, settlement.SourceCron)
		if err != nil {
			orderCtx := j.logg.WithOrderID(ctx, order.ID.String())
			j.logg.Error(orderCtx, "reconcile pending order", err)
			errs = append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		if status != enums.OrderStatusPending {
			settled++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": len(orders),
		"settled": settled,
	})
	j.logg.Info(logCtx, "pending order reconcile loop complete")
	return multierr.Combine(errs...)
}
