package controllers

import (
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/playgate-app/playgate-backend/api/responses"
	"github.com/playgate-app/playgate-backend/api/validators"
	checkoutsvc "github.com/playgate-app/playgate-backend/internal/checkout"
	purchasesvc "github.com/playgate-app/playgate-backend/internal/purchases"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/outbox"
)

// GrantAccess creates a zero-amount purchase on behalf of an administrator.
func GrantAccess(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		adminID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := uuidURLParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contentID, err := uuidURLParam(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload grantAccessRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		purchase, err := svc.GrantManualAccess(r.Context(), purchasesvc.GrantAccessInput{
			UserID:          userID,
			ContentID:       contentID,
			GrantedByUserID: adminID,
			Reason:          payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPurchaseResponse(purchase))
	}
}

// RefundPurchase marks the purchase refunded and, when it originated from a
// real gateway transaction, asks the gateway to refund the charge as well.
// The ledger transition is the source of truth; the gateway call is best
// effort and logged on failure.
func RefundPurchase(svc purchasesvc.Service, gateway checkoutsvc.GatewayClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		adminID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		purchaseID, err := uuidURLParam(r, "purchaseID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleAdmin)}
		purchase, err := svc.RefundPurchase(r.Context(), purchaseID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if gateway != nil && !purchase.IsManualGrant() {
			_, refundErr := gateway.CreateRefund(r.Context(), &stripe.RefundParams{
				PaymentIntent: stripe.String(purchase.ProviderTransactionID),
			})
			if refundErr != nil && logg != nil {
				ctx := logg.WithFields(r.Context(), map[string]any{
					"purchase_id": purchase.ID.String(),
					"error":       refundErr.Error(),
				})
				logg.Warn(ctx, "refund.gateway_call_failed")
			}
		}

		responses.WriteSuccess(w, newPurchaseResponse(purchase))
	}
}

type grantAccessRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}
