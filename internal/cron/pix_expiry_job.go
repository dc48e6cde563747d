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

const pixExpiredReason = "pix charge expired"

type expiredPixSource interface {
	FindPendingPixOrdersExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type statusApplier interface {
	ApplyStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, opts settlement.ApplyOptions) error
}

// PixExpiryJobParams configure the pix expiration sweep.
type PixExpiryJobParams struct {
	Logger     *logger.Logger
	Orders     expiredPixSource
	Settlement statusApplier
	BatchSize  int
}

// NewPixExpiryJob builds the job that fails pix orders whose QR code
// expired without payment.
func NewPixExpiryJob(params PixExpiryJobParams) (Job, error) {
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
	return &pixExpiryJob{
		logg:       params.Logger,
		orders:     params.Orders,
		settlement: params.Settlement,
		batchSize:  batchSize,
		now:        time.Now,
	}, nil
}

type pixExpiryJob struct {
	logg       *logger.Logger
	orders     expiredPixSource
	settlement statusApplier
	batchSize  int
	now        func() time.Time
}

func (j *pixExpiryJob) Name() string { return "pix-expiry" }

func (j *pixExpiryJob) Run(ctx context.Context) error {
	orders, err := j.orders.FindPendingPixOrdersExpiredBefore(ctx, j.now().UTC(), j.batchSize)
	if err != nil {
		return fmt.Errorf("query expired pix orders: %w", err)
	}

	var errs []error
	expired := 0
	reason := pixExpiredReason
	for _, order := range orders {
		err := j.settlement.ApplyStatus(ctx, order.ID, enums.OrderStatusFailed, settlement.ApplyOptions{
			Source:        settlement.SourceCron,
			FailureReason: &reason,
		})
		if err != nil {
			orderCtx := j.logg.WithOrderID(ctx, order.ID.String())
			j.logg.Error(orderCtx, "expire pix order", err)
			errs = append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": len(orders),
		"expired": expired,
	})
	j.logg.Info(logCtx, "pix expiration loop complete")
	return multierr.Combine(errs...)
}
