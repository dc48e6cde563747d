package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Order is the settlement aggregate. Status moves pending -> paid|failed and
// paid -> refunded|chargeback; transitions are applied via conditional update.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	SellerID       uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	BuyerID        *uuid.UUID          `gorm:"column:buyer_id;type:uuid;index"`
	BuyerEmail     string              `gorm:"column:buyer_email;not null"`
	BuyerName      string              `gorm:"column:buyer_name;not null"`
	BuyerDocument  *string             `gorm:"column:buyer_document"`
	AmountCents    int64               `gorm:"column:amount_cents;not null"`
	FeePercent     int                 `gorm:"column:fee_percent;not null"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Status         enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending';index"`
	GatewayOrderID *string             `gorm:"column:gateway_order_id;index"`
	ChargeID       *string             `gorm:"column:charge_id;index"`
	PixQRCode      *string             `gorm:"column:pix_qr_code"`
	PixQRCodeURL   *string             `gorm:"column:pix_qr_code_url"`
	PixExpiresAt   *time.Time          `gorm:"column:pix_expires_at"`
	CardLastDigits *string             `gorm:"column:card_last_digits"`
	CardBrand      *string             `gorm:"column:card_brand"`
	Installments   *int                `gorm:"column:installments"`
	FailureReason  *string             `gorm:"column:failure_reason"`
	PaidAt         *time.Time          `gorm:"column:paid_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
