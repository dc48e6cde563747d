package balance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/money"
)

// Summary is a seller's ledger position in cents.
type Summary struct {
	TotalSoldCents int64 `json:"total_sold"`
	// PendingCents sums orders still awaiting settlement; nothing here is
	// withdrawable yet.
	PendingCents     int64  `json:"pending"`
	FeesCents        int64  `json:"total_fees"`
	RefundedCents    int64  `json:"refunded"`
	WithdrawnCents   int64  `json:"withdrawn"`
	AvailableCents   int64  `json:"available"`
	AvailableDisplay string `json:"available_display"`
}

// Service computes seller balances from the transactions ledger.
type Service interface {
	Compute(ctx context.Context, sellerID uuid.UUID) (*Summary, error)
	// ComputeTx computes inside an existing transaction so withdrawal
	// validation and the debit see the same ledger state.
	ComputeTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*Summary, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds the balance service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db}, nil
}

func (s *service) Compute(ctx context.Context, sellerID uuid.UUID) (*Summary, error) {
	return s.ComputeTx(ctx, s.db, sellerID)
}

func (s *service) ComputeTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*Summary, error) {
	if tx == nil {
		tx = s.db
	}

	sold, err := s.sumByType(ctx, tx, sellerID, enums.TransactionTypeSale)
	if err != nil {
		return nil, err
	}
	refunded, err := s.sumByType(ctx, tx, sellerID, enums.TransactionTypeRefund)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.sumByType(ctx, tx, sellerID, enums.TransactionTypeWithdrawal)
	if err != nil {
		return nil, err
	}
	fees, err := s.sumByType(ctx, tx, sellerID, enums.TransactionTypePlatformFee)
	if err != nil {
		return nil, err
	}
	pending, err := s.sumPendingOrders(ctx, tx, sellerID)
	if err != nil {
		return nil, err
	}

	// A refund claws back the full order amount while the sale row only
	// credited the seller's net share; the available balance still floors
	// at zero rather than going negative. Fees are informational and
	// already netted out of the sale rows, so they are never subtracted
	// again here.
	available := sold - refunded - withdrawn
	if available < 0 {
		available = 0
	}
	return &Summary{
		TotalSoldCents:   sold,
		PendingCents:     pending,
		FeesCents:        fees,
		RefundedCents:    refunded,
		WithdrawnCents:   withdrawn,
		AvailableCents:   available,
		AvailableDisplay: money.Display(available),
	}, nil
}

func (s *service) sumPendingOrders(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (int64, error) {
	var total int64
	err := tx.WithContext(ctx).
		Table("orders").
		Where("seller_id = ? AND status = ?", sellerID, enums.OrderStatusPending).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum pending orders")
	}
	return total, nil
}

func (s *service) sumByType(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, txType enums.TransactionType) (int64, error) {
	var total int64
	err := tx.WithContext(ctx).
		Table("transactions").
		Where("user_id = ? AND type = ? AND status = ?", sellerID, txType, enums.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("sum %s transactions", txType))
	}
	return total, nil
}
