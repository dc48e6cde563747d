package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Transaction is a ledger entry derived from settlement. The unique index on
// (order_id, type) is the durable backstop against double fan-out.
type Transaction struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     *uuid.UUID              `gorm:"column:order_id;type:uuid;uniqueIndex:idx_transactions_order_type"`
	UserID      uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.TransactionType   `gorm:"column:type;type:transaction_type;not null;uniqueIndex:idx_transactions_order_type"`
	Status      enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'completed'"`
	AmountCents int64                   `gorm:"column:amount_cents;not null"`
	Description *string                 `gorm:"column:description"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
