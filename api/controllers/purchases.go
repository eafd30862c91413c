package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/api/responses"
	"github.com/playgate-app/playgate-backend/api/validators"
	purchasesvc "github.com/playgate-app/playgate-backend/internal/purchases"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/pagination"
)

// ListPurchases returns the caller's purchase history, newest first.
func ListPurchases(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		rows, next, err := svc.ListByUser(r.Context(), userID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]purchaseResponse, 0, len(rows))
		for _, row := range rows {
			items = append(items, newPurchaseResponse(&row))
		}
		responses.WriteSuccess(w, purchaseListResponse{Purchases: items, NextCursor: next})
	}
}

type purchaseListResponse struct {
	Purchases  []purchaseResponse `json:"purchases"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type purchaseResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ContentID            uuid.UUID  `json:"content_id"`
	OrganizationID       uuid.UUID  `json:"organization_id"`
	AmountCents          int64      `json:"amount_cents"`
	PlatformFeeCents     int64      `json:"platform_fee_cents"`
	OrganizationFeeCents int64      `json:"organization_fee_cents"`
	CreatorPayoutCents   int64      `json:"creator_payout_cents"`
	Status               string     `json:"status"`
	ManualGrant          bool       `json:"manual_grant"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func newPurchaseResponse(row *models.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:                   row.ID,
		ContentID:            row.ContentID,
		OrganizationID:       row.OrganizationID,
		AmountCents:          row.AmountCents,
		PlatformFeeCents:     row.PlatformFeeCents,
		OrganizationFeeCents: row.OrganizationFeeCents,
		CreatorPayoutCents:   row.CreatorPayoutCents,
		Status:               string(row.Status),
		ManualGrant:          row.IsManualGrant(),
		RefundedAt:           row.RefundedAt,
		CreatedAt:            row.CreatedAt,
	}
}
