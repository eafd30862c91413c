package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/enums"
)

// OrganizationMembership maps a consumer to an organization for the
// members-only tier. Managed by the accounts service; read-only here.
type OrganizationMembership struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID              `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:ux_org_memberships_org_user"`
	UserID         uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_org_memberships_org_user"`
	Role           enums.MemberRole       `gorm:"column:role;type:member_role_enum;not null;default:'member'"`
	Status         enums.MembershipStatus `gorm:"column:status;type:membership_status_enum;not null;default:'active'"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
