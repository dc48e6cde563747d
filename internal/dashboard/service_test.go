package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/internal/balance"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

func setupDashboardTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  buyer_id TEXT,
  buyer_email TEXT NOT NULL,
  buyer_name TEXT,
  buyer_document TEXT,
  amount_cents INTEGER NOT NULL,
  fee_percent INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  gateway_order_id TEXT,
  charge_id TEXT,
  pix_qr_code TEXT,
  pix_qr_code_url TEXT,
  pix_expires_at DATETIME,
  card_last_digits TEXT,
  card_brand TEXT,
  installments INTEGER,
  failure_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  paid_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL,
  content_url TEXT,
  sales_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  order_id TEXT,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'completed',
  amount_cents INTEGER NOT NULL,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedDashboardOrder(t *testing.T, db *gorm.DB, sellerID, productID uuid.UUID, status enums.OrderStatus, amount int64, createdAt time.Time) uuid.UUID {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		ProductID:     productID,
		SellerID:      sellerID,
		BuyerEmail:    "buyer@example.com",
		AmountCents:   amount,
		Status:        status,
		PaymentMethod: enums.PaymentMethodPix,
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		UpdateColumn("created_at", createdAt).Error)
	return order.ID
}

func TestDashboardSummary(t *testing.T) {
	db := setupDashboardTestDB(t)
	balances, err := balance.NewService(db)
	require.NoError(t, err)
	svc, err := NewService(db, balances)
	require.NoError(t, err)

	sellerID := uuid.New()
	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   sellerID,
		Name:       "Curso de Violao",
		PriceCents: 10000,
		Type:       enums.ProductTypeCourse,
		Status:     enums.ProductStatusActive,
	}
	require.NoError(t, db.Create(product).Error)

	now := time.Now()
	seedDashboardOrder(t, db, sellerID, product.ID, enums.OrderStatusPaid, 10000, now.Add(-3*time.Hour))
	newest := seedDashboardOrder(t, db, sellerID, product.ID, enums.OrderStatusPaid, 10000, now.Add(-1*time.Hour))
	seedDashboardOrder(t, db, sellerID, product.ID, enums.OrderStatusPending, 10000, now.Add(-2*time.Hour))
	seedDashboardOrder(t, db, sellerID, product.ID, enums.OrderStatusRefunded, 10000, now.Add(-4*time.Hour))
	// Another seller's orders never leak into the summary.
	seedDashboardOrder(t, db, uuid.New(), product.ID, enums.OrderStatusPaid, 99999, now)

	orderID := uuid.New()
	require.NoError(t, db.Create(&models.Transaction{
		ID: uuid.New(), OrderID: &orderID, UserID: sellerID,
		Type: enums.TransactionTypeSale, Status: enums.TransactionStatusCompleted,
		AmountCents: 8500,
	}).Error)

	summary, err := svc.Summary(context.Background(), sellerID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.PaidOrders)
	assert.Equal(t, int64(1), summary.PendingOrders)
	assert.Equal(t, int64(1), summary.RefundedOrders)
	assert.Equal(t, int64(30000), summary.GrossCents)
	assert.Equal(t, "300.00", summary.GrossDisplay)
	assert.Equal(t, int64(8500), summary.Balance.AvailableCents)

	require.NotEmpty(t, summary.RecentOrders)
	assert.Len(t, summary.RecentOrders, 4)
	assert.Equal(t, newest, summary.RecentOrders[0].OrderID)
	assert.Equal(t, "Curso de Violao", summary.RecentOrders[0].ProductName)
	assert.Equal(t, "100.00", summary.RecentOrders[0].AmountDisplay)
}

func TestDashboardSummaryEmpty(t *testing.T) {
	db := setupDashboardTestDB(t)
	balances, err := balance.NewService(db)
	require.NoError(t, err)
	svc, err := NewService(db, balances)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, summary.PaidOrders)
	assert.Equal(t, int64(0), summary.Balance.AvailableCents)
	assert.Empty(t, summary.RecentOrders)
}
