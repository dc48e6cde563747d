package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Repository defines persistence operations for the settlement tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByChargeID(ctx context.Context, chargeID string) (*models.Order, error)
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	FindPendingPixOrdersExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	// TransitionStatus applies the conditional update that guards the status
	// machine. It reports whether the row actually moved.
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	CreatePlatformFee(ctx context.Context, fee *models.PlatformFee) error
	IncrementSalesCount(ctx context.Context, productID uuid.UUID) error
}
