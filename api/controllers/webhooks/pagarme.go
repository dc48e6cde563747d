package webhooks

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/vendalivre/vendalivre-backend/api/responses"
	"github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
)

type pagarmeWebhookService interface {
	HandleEvent(ctx context.Context, event *pagarme.WebhookEvent) error
}

type pagarmeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type pagarmeClient interface {
	SigningSecret() string
}

// PagarmeWebhook receives charge lifecycle notifications. Settlement applies
// them idempotently, so a replayed delivery is harmless.
func PagarmeWebhook(svc pagarmeWebhookService, client pagarmeClient, guard pagarmeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeInternal, "gateway client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		if secret := client.SigningSecret(); secret != "" {
			_, provided, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(ctx, logg, w, errors.New(errors.CodeUnauthorized, "webhook credentials invalid"))
				return
			}
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			// A truncated body means the delivery is unusable, but a 5xx
			// would only make the gateway retry a broken connection.
			if logg != nil {
				logg.Error(ctx, "webhook body unreadable", err)
			}
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		var event pagarme.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeValidation, err, "decode webhook payload"))
			return
		}
		if event.ID == "" {
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeValidation, "webhook event id missing"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			// The guard is cheap dedupe on top of the conditional status
			// transition, which already absorbs replays. Process without it
			// rather than bounce the delivery while Redis is down.
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "event_id", event.ID), "idempotency guard unavailable, processing without dedupe")
			}
			alreadyProcessed = false
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			// Acknowledge anyway so the gateway does not burn its retry
			// budget on a poison event. Unmarking lets a later redelivery
			// or the cron sweep land once the failure clears.
			_ = guard.Delete(ctx, event.ID)
			if logg != nil {
				logg.Error(logg.WithField(ctx, "event_id", event.ID), "webhook processing failed", err)
			}
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "event_id", event.ID), "gateway webhook processed")
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
