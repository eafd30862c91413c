package purchases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	"github.com/playgate-app/playgate-backend/pkg/pagination"
)

// Repository manages persistence for purchase rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateConflictSafe(ctx context.Context, purchase *models.Purchase) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByProviderTransactionID(ctx context.Context, providerTransactionID string) (*models.Purchase, error)
	FindCompletedByUserContent(ctx context.Context, userID, contentID uuid.UUID) (*models.Purchase, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Purchase, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchase repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateConflictSafe inserts the purchase, doing nothing when a row with the
// same provider_transaction_id already exists. Returns whether a row was
// actually inserted. The unique index closes the race between concurrent
// duplicate deliveries.
func (r *repository) CreateConflictSafe(ctx context.Context, purchase *models.Purchase) (bool, error) {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_transaction_id"}},
			DoNothing: true,
		}).
		Create(purchase)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindByProviderTransactionID(ctx context.Context, providerTransactionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		First(&purchase, "provider_transaction_id = ?", providerTransactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindCompletedByUserContent(ctx context.Context, userID, contentID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ? AND status = ?", userID, contentID, enums.PurchaseStatusCompleted).
		Order("created_at DESC").
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, enums.PurchaseStatusCompleted).
		Updates(map[string]any{
			"status":      enums.PurchaseStatusRefunded,
			"refunded_at": refundedAt,
		}).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Purchase, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.Purchase
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
