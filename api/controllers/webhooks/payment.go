package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/playgate-app/playgate-backend/api/responses"
	paymentwebhook "github.com/playgate-app/playgate-backend/internal/webhooks/payment"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/metrics"
)

type PaymentWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type paymentWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type signingSecretSource interface {
	SigningSecret() string
}

// PaymentWebhook receives payment gateway deliveries. Signature failure is
// 401; once a verified event has been routed the response is always 200 with
// {received:true}, including unhandled types and duplicate deliveries, so
// the gateway stops retrying. Genuine processing failures stay non-200.
func PaymentWebhook(svc PaymentWebhookService, secrets signingSecretSource, guard paymentWebhookGuard, tolerance time.Duration, webhookMetrics *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if secrets == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(paymentwebhook.SignatureHeader)
		if err := paymentwebhook.VerifySignature(secrets.SigningSecret(), sigHeader, payload, time.Now(), tolerance); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}
		if event.ID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id missing"))
			return
		}

		webhookMetrics.IncReceived(string(event.Type))

		alreadySeen, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check delivery guard"))
			return
		}
		if alreadySeen {
			webhookMetrics.IncOutcome(string(event.Type), "duplicate")
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			// Clear the guard so the gateway's retry is not filtered out.
			_ = guard.Delete(ctx, event.ID)
			webhookMetrics.IncOutcome(string(event.Type), "error")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		webhookMetrics.IncOutcome(string(event.Type), "processed")
		if logg != nil {
			logCtx := logg.WithFields(ctx, map[string]any{
				"event_id":   event.ID,
				"event_type": string(event.Type),
			})
			logg.Info(logCtx, "webhook.event_processed")
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
