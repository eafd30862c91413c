package streaming

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
)

// MaxURLLifetime is the hard ceiling on signed URL validity. Configuration
// and callers can shorten it, never extend it.
const MaxURLLifetime = time.Hour

type urlSigner interface {
	SignedReadURL(bucket, object string, expires time.Time) (string, error)
}

// StreamInfo is the signed playback descriptor returned to an allowed caller.
type StreamInfo struct {
	URL         string
	ExpiresAt   time.Time
	ContentType string
}

// Service mints signed streaming URLs for ready media.
type Service interface {
	IssueStreamURL(ctx context.Context, media *models.MediaItem) (*StreamInfo, error)
}

type ServiceParams struct {
	Signer urlSigner
	Config config.StreamConfig
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	signer urlSigner
	cfg    config.StreamConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the signed URL issuer.
func NewService(params ServiceParams) (Service, error) {
	if params.Signer == nil {
		return nil, fmt.Errorf("url signer required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		signer: params.Signer,
		cfg:    params.Config,
		logg:   params.Logger,
		now:    now,
	}, nil
}

func (s *service) IssueStreamURL(ctx context.Context, media *models.MediaItem) (*StreamInfo, error) {
	if media == nil || !media.IsReady() {
		return nil, pkgerrors.New(pkgerrors.CodeNotReady, "media is not ready for streaming")
	}

	ttl := s.cfg.URLTTL
	if ttl <= 0 || ttl > MaxURLLifetime {
		ttl = MaxURLLifetime
	}
	expiresAt := s.now().Add(ttl)

	backoff := retry.NewExponential(s.signBackoff())
	backoff = retry.WithMaxRetries(s.signRetries(), backoff)

	var signedURL string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		url, signErr := s.signer.SignedReadURL("", media.ManifestKey, expiresAt)
		if signErr != nil {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"media_item_id": media.ID.String(),
					"error":         signErr.Error(),
				})
				s.logg.Warn(logCtx, "streaming.sign_retry")
			}
			return retry.RetryableError(signErr)
		}
		signedURL = url
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign streaming url")
	}

	return &StreamInfo{
		URL:         signedURL,
		ExpiresAt:   expiresAt,
		ContentType: media.ContentType,
	}, nil
}

func (s *service) signRetries() uint64 {
	if s.cfg.SignRetries <= 0 {
		return 3
	}
	return uint64(s.cfg.SignRetries)
}

func (s *service) signBackoff() time.Duration {
	if s.cfg.SignBackoff <= 0 {
		return 200 * time.Millisecond
	}
	return s.cfg.SignBackoff
}
