package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	"github.com/playgate-app/playgate-backend/pkg/pagination"
)

func setupPurchasesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS purchases (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  organization_id TEXT NOT NULL,
  content_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  platform_fee_cents INTEGER NOT NULL DEFAULT 0,
  organization_fee_cents INTEGER NOT NULL DEFAULT 0,
  creator_payout_cents INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  provider_transaction_id TEXT NOT NULL UNIQUE,
  provider_checkout_session_id TEXT,
  granted_by_user_id TEXT,
  grant_reason TEXT,
  refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedPurchase(t *testing.T, repo Repository, userID, contentID uuid.UUID, txID string, createdAt time.Time) *models.Purchase {
	t.Helper()
	purchase := &models.Purchase{
		ID:                    uuid.New(),
		UserID:                userID,
		OrganizationID:        uuid.New(),
		ContentID:             contentID,
		AmountCents:           2999,
		PlatformFeeCents:      300,
		CreatorPayoutCents:    2699,
		Status:                enums.PurchaseStatusCompleted,
		ProviderTransactionID: txID,
		CreatedAt:             createdAt,
	}
	inserted, err := repo.CreateConflictSafe(context.Background(), purchase)
	require.NoError(t, err)
	require.True(t, inserted)
	return purchase
}

func TestCreateConflictSafeDuplicateTransactionID(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	txID := "pi_" + uuid.NewString()

	first := seedPurchase(t, repo, uuid.New(), uuid.New(), txID, time.Now())

	dup := &models.Purchase{
		ID:                    uuid.New(),
		UserID:                uuid.New(),
		OrganizationID:        uuid.New(),
		ContentID:             uuid.New(),
		AmountCents:           2999,
		Status:                enums.PurchaseStatusCompleted,
		ProviderTransactionID: txID,
	}
	inserted, err := repo.CreateConflictSafe(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, inserted, "second insert with the same transaction id must be a no-op")

	found, err := repo.FindByProviderTransactionID(context.Background(), txID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestFindCompletedByUserContentIgnoresRefunded(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	contentID := uuid.New()

	purchase := seedPurchase(t, repo, userID, contentID, "pi_"+uuid.NewString(), time.Now())

	found, err := repo.FindCompletedByUserContent(context.Background(), userID, contentID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, purchase.ID, found.ID)

	require.NoError(t, repo.MarkRefunded(context.Background(), purchase.ID, time.Now()))

	found, err = repo.FindCompletedByUserContent(context.Background(), userID, contentID)
	require.NoError(t, err)
	assert.Nil(t, found, "refunded purchase must not count as access")
}

func TestMarkRefundedOnlyTouchesCompletedRows(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	purchase := seedPurchase(t, repo, uuid.New(), uuid.New(), "pi_"+uuid.NewString(), time.Now())
	firstRefund := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkRefunded(context.Background(), purchase.ID, firstRefund))

	row, err := repo.FindByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, enums.PurchaseStatusRefunded, row.Status)
	require.NotNil(t, row.RefundedAt)

	// A second refund matches no rows and leaves the original timestamp alone.
	require.NoError(t, repo.MarkRefunded(context.Background(), purchase.ID, firstRefund.Add(time.Hour)))
	row, err = repo.FindByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, firstRefund.Unix(), row.RefundedAt.Unix())
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	row, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestListByUserKeysetPagination(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	base := time.Now().Add(-time.Hour).UTC()
	var seeded []*models.Purchase
	for i := 0; i < 5; i++ {
		p := seedPurchase(t, repo, userID, uuid.New(), "pi_"+uuid.NewString(), base.Add(time.Duration(i)*time.Minute))
		seeded = append(seeded, p)
	}
	seedPurchase(t, repo, uuid.New(), uuid.New(), "pi_"+uuid.NewString(), base)

	page, err := repo.ListByUser(context.Background(), userID, nil, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, seeded[4].ID, page[0].ID, "newest first")

	cursor := &pagination.Cursor{CreatedAt: page[2].CreatedAt, ID: page[2].ID}
	rest, err := repo.ListByUser(context.Background(), userID, cursor, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	for _, row := range rest {
		assert.Equal(t, userID, row.UserID)
		assert.True(t, row.CreatedAt.Before(page[2].CreatedAt))
	}
}
