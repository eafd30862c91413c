package progress

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playgate-app/playgate-backend/pkg/db/models"
)

// Repository persists playback positions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, row *models.PlaybackProgress) error
	Find(ctx context.Context, userID, contentID uuid.UUID) (*models.PlaybackProgress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a progress repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert writes the row, overwriting position, duration, completion, and
// watch time when the (user_id, content_id) pair already exists. Last writer
// wins.
func (r *repository) Upsert(ctx context.Context, row *models.PlaybackProgress) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"position_seconds",
				"duration_seconds",
				"completed",
				"last_watched_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *repository) Find(ctx context.Context, userID, contentID uuid.UUID) (*models.PlaybackProgress, error) {
	var row models.PlaybackProgress
	err := r.db.WithContext(ctx).
		First(&row, "user_id = ? AND content_id = ?", userID, contentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
