package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// BuyerInput identifies the paying customer at checkout. Checkout is public,
// so the buyer may not have an account yet.
type BuyerInput struct {
	Name     string
	Email    string
	Document string
	Phone    string
}

// CardInput carries raw card data straight through to the gateway.
type CardInput struct {
	Number       string
	HolderName   string
	ExpMonth     int
	ExpYear      int
	CVV          string
	Installments int
	BillingZip   string
	BillingCity  string
	BillingState string
	BillingLine  string
}

// InitiateOrderInput starts settlement for a single product purchase.
type InitiateOrderInput struct {
	ProductID     uuid.UUID
	Buyer         BuyerInput
	PaymentMethod enums.PaymentMethod
	Card          *CardInput
}

// CartItemInput is one product reference inside a store cart checkout.
type CartItemInput struct {
	ProductID uuid.UUID
}

// InitiateCartOrderInput starts settlement for a multi item store checkout.
// All items must belong to the first item's seller.
type InitiateCartOrderInput struct {
	Items         []CartItemInput
	Buyer         BuyerInput
	PaymentMethod enums.PaymentMethod
	Card          *CardInput
}

// PixDetails is the Pix payload returned to the checkout page.
type PixDetails struct {
	QRCode    string     `json:"qr_code"`
	QRCodeURL string     `json:"qr_code_url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CardDetails is the safe card summary returned to the checkout page.
type CardDetails struct {
	LastDigits string `json:"last_digits"`
	Brand      string `json:"brand"`
}

// InitiateOrderResult is returned to the checkout caller.
type InitiateOrderResult struct {
	OrderID       uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	AmountCents   int64               `json:"amount"`
	AmountDisplay string              `json:"amount_display"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Pix           *PixDetails         `json:"pix,omitempty"`
	Card          *CardDetails        `json:"card,omitempty"`
}

// OrderStatusResult backs the polling endpoint for checkout pages.
type OrderStatusResult struct {
	OrderID       uuid.UUID           `json:"id"`
	ProductID     uuid.UUID           `json:"product_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	AmountCents   int64               `json:"amount"`
	AmountDisplay string              `json:"amount_display"`
	BuyerID       *uuid.UUID          `json:"-"`
	BuyerEmail    string              `json:"-"`
	Pix           *PixDetails         `json:"pix,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	// AccessToken is filled by the API layer on paid orders with a resolved
	// buyer, logging the buyer into the member area.
	AccessToken string `json:"access_token,omitempty"`
}
