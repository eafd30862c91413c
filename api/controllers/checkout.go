package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/api/responses"
	"github.com/playgate-app/playgate-backend/api/validators"
	checkoutsvc "github.com/playgate-app/playgate-backend/internal/checkout"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
)

// CreateCheckout opens a gateway checkout session for the caller.
func CreateCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateSession(r.Context(), userID, payload.ContentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createCheckoutResponse{
			SessionID:   session.SessionID,
			CheckoutURL: session.CheckoutURL,
		})
	}
}

type createCheckoutRequest struct {
	ContentID uuid.UUID `json:"content_id" validate:"required"`
}

type createCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}
