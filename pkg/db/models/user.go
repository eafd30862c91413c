package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/enums"
)

// User is the read model for an authenticated consumer. Registration and
// session management live in the accounts service.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Name      string         `gorm:"column:name"`
	Role      enums.UserRole `gorm:"column:role;type:user_role_enum;not null;default:'consumer'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
