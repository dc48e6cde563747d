package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Withdrawal is a seller payout request routed through the gateway transfer API.
type Withdrawal struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID          uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountCents       int64                  `gorm:"column:amount_cents;not null"`
	Status            enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status;not null;default:'processing'"`
	GatewayTransferID *string                `gorm:"column:gateway_transfer_id"`
	FailureReason     *string                `gorm:"column:failure_reason"`
	ProcessedAt       *time.Time             `gorm:"column:processed_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
