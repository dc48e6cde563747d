package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/internal/balance"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/money"
)

const recentOrdersLimit = 10

// RecentOrder is a row in the dashboard's latest sales table.
type RecentOrder struct {
	OrderID       uuid.UUID           `json:"id"`
	ProductName   string              `json:"product_name"`
	BuyerEmail    string              `json:"buyer_email"`
	AmountCents   int64               `json:"amount"`
	AmountDisplay string              `json:"amount_display"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Summary aggregates a seller's sales position for the dashboard.
type Summary struct {
	PaidOrders     int64            `json:"paid_orders"`
	PendingOrders  int64            `json:"pending_orders"`
	RefundedOrders int64            `json:"refunded_orders"`
	GrossCents     int64            `json:"gross_revenue"`
	GrossDisplay   string           `json:"gross_revenue_display"`
	Balance        *balance.Summary `json:"balance"`
	RecentOrders   []RecentOrder    `json:"recent_orders"`
}

// Service builds the seller dashboard.
type Service interface {
	Summary(ctx context.Context, sellerID uuid.UUID) (*Summary, error)
}

type service struct {
	db       *gorm.DB
	balances balance.Service
}

// NewService builds the dashboard service.
func NewService(db *gorm.DB, balances balance.Service) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance service required")
	}
	return &service{db: db, balances: balances}, nil
}

func (s *service) Summary(ctx context.Context, sellerID uuid.UUID) (*Summary, error) {
	summary := &Summary{}

	type statusCount struct {
		Status enums.OrderStatus
		Total  int64
		Amount int64
	}
	var counts []statusCount
	err := s.db.WithContext(ctx).
		Table("orders").
		Select("status, COUNT(*) AS total, COALESCE(SUM(amount_cents), 0) AS amount").
		Where("seller_id = ?", sellerID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate orders")
	}
	for _, row := range counts {
		switch row.Status {
		case enums.OrderStatusPaid:
			summary.PaidOrders = row.Total
			summary.GrossCents += row.Amount
		case enums.OrderStatusPending:
			summary.PendingOrders = row.Total
		case enums.OrderStatusRefunded, enums.OrderStatusChargeback:
			summary.RefundedOrders += row.Total
			// Reversed orders were paid once, so they stay in gross.
			summary.GrossCents += row.Amount
		}
	}
	summary.GrossDisplay = money.Display(summary.GrossCents)

	balanceSummary, err := s.balances.Compute(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	summary.Balance = balanceSummary

	var recent []RecentOrder
	err = s.db.WithContext(ctx).
		Table("orders").
		Select(`orders.id AS order_id,
			products.name AS product_name,
			orders.buyer_email,
			orders.amount_cents,
			orders.status,
			orders.payment_method,
			orders.created_at`).
		Joins("JOIN products ON products.id = orders.product_id").
		Where("orders.seller_id = ?", sellerID).
		Order("orders.created_at DESC").
		Limit(recentOrdersLimit).
		Scan(&recent).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent orders")
	}
	for i := range recent {
		recent[i].AmountDisplay = money.Display(recent[i].AmountCents)
	}
	summary.RecentOrders = recent

	return summary, nil
}
