package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization owns content and receives the organization share of each
// split. The optional rate overrides (basis points) take precedence over the
// platform-wide fee configuration.
type Organization struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string    `gorm:"column:name;not null"`
	OwnerUserID         uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null"`
	PlatformRateBps     *int      `gorm:"column:platform_rate_bps"`
	OrganizationRateBps *int      `gorm:"column:organization_rate_bps"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
