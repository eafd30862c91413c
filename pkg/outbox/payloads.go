package outbox

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseRecordedData is the v1 payload for purchase.recorded events.
type PurchaseRecordedData struct {
	PurchaseID            uuid.UUID `json:"purchaseId"`
	UserID                uuid.UUID `json:"userId"`
	OrganizationID        uuid.UUID `json:"organizationId"`
	ContentID             uuid.UUID `json:"contentId"`
	AmountCents           int64     `json:"amountCents"`
	PlatformFeeCents      int64     `json:"platformFeeCents"`
	OrganizationFeeCents  int64     `json:"organizationFeeCents"`
	CreatorPayoutCents    int64     `json:"creatorPayoutCents"`
	ProviderTransactionID string    `json:"providerTransactionId"`
	ManualGrant           bool      `json:"manualGrant"`
}

// PurchaseRefundedData is the v1 payload for purchase.refunded events.
type PurchaseRefundedData struct {
	PurchaseID            uuid.UUID `json:"purchaseId"`
	UserID                uuid.UUID `json:"userId"`
	ContentID             uuid.UUID `json:"contentId"`
	AmountCents           int64     `json:"amountCents"`
	ProviderTransactionID string    `json:"providerTransactionId"`
	RefundedAt            time.Time `json:"refundedAt"`
}
