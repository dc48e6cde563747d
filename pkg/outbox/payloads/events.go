package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// OrderCreatedEvent signals a new order awaiting gateway settlement.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	ProductID     uuid.UUID           `json:"product_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	AmountCents   int64               `json:"amount_cents"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderPaidEvent is emitted exactly once when settlement confirms payment.
type OrderPaidEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	ProductID      uuid.UUID `json:"product_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	BuyerID        uuid.UUID `json:"buyer_id"`
	AmountCents    int64     `json:"amount_cents"`
	SellerNetCents int64     `json:"seller_net_cents"`
	FeeCents       int64     `json:"fee_cents"`
	PaidAt         time.Time `json:"paid_at"`
}

// OrderFailedEvent reports a declined or expired charge.
type OrderFailedEvent struct {
	OrderID  uuid.UUID `json:"order_id"`
	SellerID uuid.UUID `json:"seller_id"`
	Reason   string    `json:"reason,omitempty"`
	FailedAt time.Time `json:"failed_at"`
}

// OrderRefundedEvent is emitted when a paid order is refunded.
type OrderRefundedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	RefundedAt  time.Time `json:"refunded_at"`
}

// OrderChargebackEvent is emitted when the issuer reverses a paid order.
type OrderChargebackEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	ReversedAt  time.Time `json:"reversed_at"`
}

// EnrollmentGrantedEvent signals buyer access to a product.
type EnrollmentGrantedEvent struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	UserID       uuid.UUID `json:"user_id"`
	ProductID    uuid.UUID `json:"product_id"`
	OrderID      uuid.UUID `json:"order_id"`
}

// BuyerProvisionedEvent is emitted when checkout creates a shadow buyer account.
type BuyerProvisionedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// WithdrawalRequestedEvent reports a new seller payout request.
type WithdrawalRequestedEvent struct {
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
	SellerID     uuid.UUID `json:"seller_id"`
	AmountCents  int64     `json:"amount_cents"`
}

// WithdrawalSettledEvent covers both completed and failed payout outcomes.
type WithdrawalSettledEvent struct {
	WithdrawalID uuid.UUID              `json:"withdrawal_id"`
	SellerID     uuid.UUID              `json:"seller_id"`
	AmountCents  int64                  `json:"amount_cents"`
	Status       enums.WithdrawalStatus `json:"status"`
	Reason       string                 `json:"reason,omitempty"`
}
