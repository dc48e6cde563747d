package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Product is a digital product listed by a seller.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Name        string              `gorm:"column:name;not null"`
	Description *string             `gorm:"column:description"`
	Type        enums.ProductType   `gorm:"column:type;type:product_type;not null;default:'course'"`
	Status      enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'active'"`
	PriceCents  int64               `gorm:"column:price_cents;not null"`
	SalesCount  int64               `gorm:"column:sales_count;not null;default:0"`
	ContentURL  *string             `gorm:"column:content_url"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
