package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/enums"
)

// MediaItem is the read model for a transcoded asset. ManifestKey points at
// the adaptive-streaming manifest object; WaveformKey at the preview asset.
type MediaItem struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Status          enums.MediaStatus `gorm:"column:status;type:media_status_enum;not null;default:'uploading'"`
	ManifestKey     string            `gorm:"column:manifest_key"`
	WaveformKey     string            `gorm:"column:waveform_key"`
	ContentType     string            `gorm:"column:content_type;not null;default:'application/x-mpegURL'"`
	DurationSeconds float64           `gorm:"column:duration_seconds;not null;default:0"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// IsReady reports whether the asset can be streamed.
func (m MediaItem) IsReady() bool {
	return m.Status == enums.MediaStatusReady && m.ManifestKey != ""
}
