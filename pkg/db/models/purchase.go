package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/enums"
)

// Purchase is the durable record of a confirmed payment or manual grant.
// ProviderTransactionID is unique and doubles as the idempotency key for
// webhook deliveries; the split columns always sum to AmountCents exactly.
type Purchase struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:ix_purchases_user_content"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;index"`
	ContentID      uuid.UUID `gorm:"column:content_id;type:uuid;not null;index:ix_purchases_user_content"`

	AmountCents          int64 `gorm:"column:amount_cents;not null"`
	PlatformFeeCents     int64 `gorm:"column:platform_fee_cents;not null"`
	OrganizationFeeCents int64 `gorm:"column:organization_fee_cents;not null"`
	CreatorPayoutCents   int64 `gorm:"column:creator_payout_cents;not null"`

	Status enums.PurchaseStatus `gorm:"column:status;type:purchase_status_enum;not null;default:'completed'"`

	ProviderTransactionID     string  `gorm:"column:provider_transaction_id;not null;uniqueIndex:ux_purchases_provider_transaction_id"`
	ProviderCheckoutSessionID *string `gorm:"column:provider_checkout_session_id"`

	GrantedByUserID *uuid.UUID `gorm:"column:granted_by_user_id;type:uuid"`
	GrantReason     *string    `gorm:"column:grant_reason"`

	RefundedAt *time.Time `gorm:"column:refunded_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsManualGrant reports whether the row was created by an administrator
// rather than the payment gateway.
func (p Purchase) IsManualGrant() bool {
	return p.GrantedByUserID != nil
}
