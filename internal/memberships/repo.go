package memberships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
)

// Repository reads organization memberships. Managed elsewhere; read-only here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	HasActiveMembership(ctx context.Context, organizationID, userID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a membership repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) HasActiveMembership(ctx context.Context, organizationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrganizationMembership{}).
		Where("organization_id = ? AND user_id = ? AND status = ?", organizationID, userID, enums.MembershipStatusActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
