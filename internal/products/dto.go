package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	"github.com/vendalivre/vendalivre-backend/pkg/money"
)

// CreateProductInput carries a seller's new listing.
type CreateProductInput struct {
	SellerID    uuid.UUID
	Name        string
	Description *string
	Type        enums.ProductType
	PriceCents  int64
	ContentURL  *string
}

// UpdateProductInput carries a partial update. Nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Type        *enums.ProductType
	Status      *enums.ProductStatus
	PriceCents  *int64
	ContentURL  *string
}

// ProductDTO is the transport shape for seller-facing endpoints.
type ProductDTO struct {
	ID           uuid.UUID           `json:"id"`
	SellerID     uuid.UUID           `json:"seller_id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description,omitempty"`
	Type         enums.ProductType   `json:"type"`
	Status       enums.ProductStatus `json:"status"`
	PriceCents   int64               `json:"price"`
	PriceDisplay string              `json:"price_display"`
	SalesCount   int64               `json:"sales_count"`
	ContentURL   *string             `json:"content_url,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// PublicProductDTO is the checkout-page shape. It omits the content URL so
// the deliverable never leaks before payment.
type PublicProductDTO struct {
	ID           uuid.UUID         `json:"id"`
	SellerID     uuid.UUID         `json:"seller_id"`
	Name         string            `json:"name"`
	Description  *string           `json:"description,omitempty"`
	Type         enums.ProductType `json:"type"`
	PriceCents   int64             `json:"price"`
	PriceDisplay string            `json:"price_display"`
	SalesCount   int64             `json:"sales_count"`
}

// ListResult is a cursor page of seller products.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// FromModel maps the persistence model onto the seller DTO.
func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:           p.ID,
		SellerID:     p.SellerID,
		Name:         p.Name,
		Description:  p.Description,
		Type:         p.Type,
		Status:       p.Status,
		PriceCents:   p.PriceCents,
		PriceDisplay: money.Display(p.PriceCents),
		SalesCount:   p.SalesCount,
		ContentURL:   p.ContentURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// PublicFromModel maps the persistence model onto the public checkout DTO.
func PublicFromModel(p *models.Product) *PublicProductDTO {
	if p == nil {
		return nil
	}
	return &PublicProductDTO{
		ID:           p.ID,
		SellerID:     p.SellerID,
		Name:         p.Name,
		Description:  p.Description,
		Type:         p.Type,
		PriceCents:   p.PriceCents,
		PriceDisplay: money.Display(p.PriceCents),
		SalesCount:   p.SalesCount,
	}
}
