package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playgate-app/playgate-backend/pkg/db/models"
)

// Repository reads the content catalog. Authoring lives in another service;
// this repository never writes. Soft-deleted rows are invisible through it,
// which keeps deleted and missing content indistinguishable downstream.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
	FindByIDWithMedia(ctx context.Context, id uuid.UUID) (*models.Content, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a content repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	var row models.Content
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByIDWithMedia(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	var row models.Content
	err := r.db.WithContext(ctx).
		Preload("MediaItem").
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
