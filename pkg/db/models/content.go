package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/playgate-app/playgate-backend/pkg/enums"
)

// Content is the read model for published media. Authoring and publishing
// live in the catalog service; this system only reads these rows.
type Content struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID               `gorm:"column:organization_id;type:uuid;not null;index"`
	Title          string                  `gorm:"column:title;not null"`
	Status         enums.ContentStatus     `gorm:"column:status;type:content_status_enum;not null;default:'draft'"`
	Visibility     enums.ContentVisibility `gorm:"column:visibility;type:content_visibility_enum;not null;default:'public'"`
	PriceCents     *int64                  `gorm:"column:price_cents"`
	MediaItemID    *uuid.UUID              `gorm:"column:media_item_id;type:uuid"`
	Tags           pq.StringArray          `gorm:"column:tags;type:text[]"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt          `gorm:"column:deleted_at;index"`

	MediaItem *MediaItem `gorm:"foreignKey:MediaItemID"`
}

// IsFree reports whether the content has no price (null or zero).
func (c Content) IsFree() bool {
	return c.PriceCents == nil || *c.PriceCents <= 0
}
