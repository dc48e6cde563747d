package controllers

import (
	"net/http"

	"github.com/vendalivre/vendalivre-backend/api/responses"
	"github.com/vendalivre/vendalivre-backend/api/validators"
	"github.com/vendalivre/vendalivre-backend/internal/platform"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
)

type setFeeRequest struct {
	Percent int `json:"percent" validate:"min=0,max=100"`
}

func AdminGetPlatformFee(svc platform.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		percent, err := svc.FeePercent(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"percent": percent})
	}
}

// AdminSetPlatformFee changes the commission applied to new orders. Orders
// already initiated keep the fee captured at checkout.
func AdminSetPlatformFee(svc platform.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setFeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetFeePercent(r.Context(), payload.Percent, adminID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"percent": payload.Percent})
	}
}
