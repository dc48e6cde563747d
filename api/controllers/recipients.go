package controllers

import (
	"net/http"

	"github.com/vendalivre/vendalivre-backend/api/responses"
	"github.com/vendalivre/vendalivre-backend/api/validators"
	"github.com/vendalivre/vendalivre-backend/internal/recipients"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
)

type registerRecipientRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Document      string `json:"document" validate:"required,min=11,max=14"`
	BankCode      string `json:"bank_code" validate:"required,len=3"`
	BranchNumber  string `json:"branch_number" validate:"required,max=5"`
	AccountNumber string `json:"account_number" validate:"required,max=13"`
	AccountDigit  string `json:"account_digit" validate:"required,len=1"`
	AccountType   string `json:"account_type" validate:"required,oneof=checking savings"`
}

// SellerRegisterRecipient onboards the seller's bank account with the
// payment gateway so sale splits and withdrawals can reach them.
func SellerRegisterRecipient(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload registerRecipientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Register(r.Context(), sellerID, recipients.RegisterInput{
			Name:          payload.Name,
			Email:         payload.Email,
			Document:      payload.Document,
			BankCode:      payload.BankCode,
			BranchNumber:  payload.BranchNumber,
			AccountNumber: payload.AccountNumber,
			AccountDigit:  payload.AccountDigit,
			AccountType:   payload.AccountType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func SellerGetRecipient(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetForSeller(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
