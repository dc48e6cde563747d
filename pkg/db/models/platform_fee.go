package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformFee records the platform's cut of a settled order.
type PlatformFee struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_platform_fees_order"`
	SellerID    uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	FeePercent  int       `gorm:"column:fee_percent;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
