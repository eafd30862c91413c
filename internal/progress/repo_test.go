package progress

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
)

func setupProgressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS playback_progress (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  content_id TEXT NOT NULL,
  position_seconds REAL NOT NULL DEFAULT 0,
  duration_seconds REAL NOT NULL DEFAULT 0,
  completed INTEGER NOT NULL DEFAULT 0,
  last_watched_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, content_id)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	db := setupProgressTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	contentID := uuid.New()

	first := &models.PlaybackProgress{
		ID:              uuid.New(),
		UserID:          userID,
		ContentID:       contentID,
		PositionSeconds: 300,
		DurationSeconds: 3600,
		LastWatchedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(context.Background(), first))

	second := &models.PlaybackProgress{
		ID:              uuid.New(),
		UserID:          userID,
		ContentID:       contentID,
		PositionSeconds: 100,
		DurationSeconds: 3600,
		LastWatchedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(context.Background(), second))

	row, err := repo.Find(context.Background(), userID, contentID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, first.ID, row.ID, "conflict path must update the existing row")
	assert.Equal(t, float64(100), row.PositionSeconds)

	var count int64
	require.NoError(t, db.Model(&models.PlaybackProgress{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindMissingReturnsNil(t *testing.T) {
	db := setupProgressTestDB(t)
	repo := NewRepository(db)

	row, err := repo.Find(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, row)
}
