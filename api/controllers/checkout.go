package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/api/responses"
	"github.com/vendalivre/vendalivre-backend/api/validators"
	authsvc "github.com/vendalivre/vendalivre-backend/internal/auth"
	"github.com/vendalivre/vendalivre-backend/internal/settlement"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
)

type checkoutBuyer struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Document string `json:"document" validate:"omitempty,min=11,max=14"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

type checkoutCard struct {
	Number       string `json:"number" validate:"required,min=13,max=19"`
	HolderName   string `json:"holder_name" validate:"required"`
	ExpMonth     int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear      int    `json:"exp_year" validate:"required,min=2024"`
	CVV          string `json:"cvv" validate:"required,min=3,max=4"`
	Installments int    `json:"installments" validate:"omitempty,min=1,max=12"`
	BillingZip   string `json:"billing_zip" validate:"omitempty,max=9"`
	BillingCity  string `json:"billing_city" validate:"omitempty,max=80"`
	BillingState string `json:"billing_state" validate:"omitempty,max=2"`
	BillingLine  string `json:"billing_line" validate:"omitempty,max=160"`
}

type checkoutRequest struct {
	ProductID     uuid.UUID     `json:"product_id" validate:"required"`
	PaymentMethod string        `json:"payment_method" validate:"required,oneof=pix credit_card"`
	Buyer         checkoutBuyer `json:"buyer" validate:"required"`
	Card          *checkoutCard `json:"card" validate:"omitempty"`
}

type cartCheckoutRequest struct {
	ProductIDs    []uuid.UUID   `json:"product_ids" validate:"required,min=1,max=20"`
	PaymentMethod string        `json:"payment_method" validate:"required,oneof=pix credit_card"`
	Buyer         checkoutBuyer `json:"buyer" validate:"required"`
	Card          *checkoutCard `json:"card" validate:"omitempty"`
}

// Checkout starts settlement for a single product purchase. The endpoint is
// public; the buyer account is provisioned during settlement if needed.
func Checkout(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method"))
			return
		}

		result, err := svc.InitiateOrder(r.Context(), settlement.InitiateOrderInput{
			ProductID:     payload.ProductID,
			Buyer:         toBuyerInput(payload.Buyer),
			PaymentMethod: method,
			Card:          toCardInput(payload.Card),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutCart starts settlement for a multi item purchase from one seller.
func CheckoutCart(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method"))
			return
		}

		items := make([]settlement.CartItemInput, 0, len(payload.ProductIDs))
		for _, productID := range payload.ProductIDs {
			items = append(items, settlement.CartItemInput{ProductID: productID})
		}

		result, err := svc.InitiateCartOrder(r.Context(), settlement.InitiateCartOrderInput{
			Items:         items,
			Buyer:         toBuyerInput(payload.Buyer),
			PaymentMethod: method,
			Card:          toCardInput(payload.Card),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderStatus backs the checkout page's polling loop. A pending order is
// reconciled against the gateway before the status is returned, so a lost
// webhook does not strand the buyer on the payment screen. A paid order
// carries a short lived access token for the resolved buyer account.
func OrderStatus(svc settlement.Service, auth authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		status, err := svc.OrderStatus(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if status.Status == enums.OrderStatusPending {
			if _, err := svc.ReconcileByPolling(r.Context(), orderID, settlement.SourcePoll); err != nil {
				// Polling is best effort; the buyer keeps seeing pending.
				if logg != nil {
					logg.Error(logg.WithOrderID(r.Context(), orderID.String()), "poll reconcile", err)
				}
			} else if status, err = svc.OrderStatus(r.Context(), orderID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if status.Status == enums.OrderStatusPaid && status.BuyerID != nil && auth != nil {
			token, err := auth.IssueMemberToken(r.Context(), *status.BuyerID)
			if err != nil {
				// Best effort; the buyer can still log in manually.
				if logg != nil {
					logg.Error(logg.WithOrderID(r.Context(), orderID.String()), "issue member token", err)
				}
			} else {
				status.AccessToken = token
			}
		}

		responses.WriteSuccess(w, status)
	}
}

func toBuyerInput(b checkoutBuyer) settlement.BuyerInput {
	return settlement.BuyerInput{
		Name:     b.Name,
		Email:    b.Email,
		Document: b.Document,
		Phone:    b.Phone,
	}
}

func toCardInput(c *checkoutCard) *settlement.CardInput {
	if c == nil {
		return nil
	}
	return &settlement.CardInput{
		Number:       c.Number,
		HolderName:   c.HolderName,
		ExpMonth:     c.ExpMonth,
		ExpYear:      c.ExpYear,
		CVV:          c.CVV,
		Installments: c.Installments,
		BillingZip:   c.BillingZip,
		BillingCity:  c.BillingCity,
		BillingState: c.BillingState,
		BillingLine:  c.BillingLine,
	}
}
