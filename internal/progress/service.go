package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
)

// CompletionThreshold marks content watched once position reaches this share
// of the duration.
const CompletionThreshold = 0.95

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// UpsertInput carries a playback position report.
type UpsertInput struct {
	UserID          uuid.UUID
	ContentID       uuid.UUID
	PositionSeconds float64
	DurationSeconds float64
}

// Service records and retrieves resume positions. Progress state feeds
// client UX and analytics only; the access decision never reads it.
type Service interface {
	Upsert(ctx context.Context, input UpsertInput) (*models.PlaybackProgress, error)
	Get(ctx context.Context, userID, contentID uuid.UUID) (*models.PlaybackProgress, error)
}

type ServiceParams struct {
	Repo    Repository
	Limiter rateLimiter
	Config  config.ProgressConfig
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    Repository
	limiter rateLimiter
	cfg     config.ProgressConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the playback progress tracker.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("progress repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		limiter: params.Limiter,
		cfg:     params.Config,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (*models.PlaybackProgress, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ContentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}
	if input.PositionSeconds < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position must be non-negative")
	}
	if input.DurationSeconds <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}
	if input.PositionSeconds > input.DurationSeconds {
		input.PositionSeconds = input.DurationSeconds
	}

	if s.limiter != nil && s.cfg.WriteLimit > 0 {
		scope := fmt.Sprintf("progress:%s:%s", input.UserID, input.ContentID)
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, scope, s.cfg.WriteLimit, s.cfg.WriteWindow)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many progress updates")
		}
	}

	row := &models.PlaybackProgress{
		UserID:          input.UserID,
		ContentID:       input.ContentID,
		PositionSeconds: input.PositionSeconds,
		DurationSeconds: input.DurationSeconds,
		Completed:       input.PositionSeconds >= CompletionThreshold*input.DurationSeconds,
		LastWatchedAt:   s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert progress")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":    input.UserID.String(),
			"content_id": input.ContentID.String(),
			"completed":  row.Completed,
		})
		s.logg.Info(logCtx, "progress.updated")
	}
	return row, nil
}

func (s *service) Get(ctx context.Context, userID, contentID uuid.UUID) (*models.PlaybackProgress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if contentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}
	row, err := s.repo.Find(ctx, userID, contentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load progress")
	}
	return row, nil
}
