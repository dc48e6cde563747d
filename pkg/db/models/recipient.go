package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Recipient links a seller to their payout account at the gateway.
type Recipient struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID           uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:idx_recipients_seller"`
	GatewayRecipientID string                `gorm:"column:gateway_recipient_id;not null"`
	Status             enums.RecipientStatus `gorm:"column:status;type:recipient_status;not null;default:'pending'"`
	BankCode           *string               `gorm:"column:bank_code"`
	AccountLastDigits  *string               `gorm:"column:account_last_digits"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
