package models

import (
	"time"

	"github.com/google/uuid"
)

// PlaybackProgress stores the resume position for a (user, content) pair.
// One row per pair, enforced by the unique index and upserted on write. It
// never feeds the access decision.
type PlaybackProgress struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_playback_progress_user_content"`
	ContentID       uuid.UUID `gorm:"column:content_id;type:uuid;not null;uniqueIndex:ux_playback_progress_user_content"`
	PositionSeconds float64   `gorm:"column:position_seconds;not null"`
	DurationSeconds float64   `gorm:"column:duration_seconds;not null"`
	Completed       bool      `gorm:"column:completed;not null;default:false"`
	LastWatchedAt   time.Time `gorm:"column:last_watched_at;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PlaybackProgress) TableName() string {
	return "playback_progress"
}
