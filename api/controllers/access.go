package controllers

import (
	"net/http"
	"time"

	"github.com/playgate-app/playgate-backend/api/responses"
	"github.com/playgate-app/playgate-backend/api/validators"
	accesssvc "github.com/playgate-app/playgate-backend/internal/access"
	progresssvc "github.com/playgate-app/playgate-backend/internal/progress"
	streamingsvc "github.com/playgate-app/playgate-backend/internal/streaming"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
)

// StreamContent evaluates the access gates and, on allow, mints a signed
// streaming URL for the content's manifest.
func StreamContent(access accesssvc.Service, streaming streamingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if access == nil || streaming == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contentID, err := uuidURLParam(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := access.CanAccess(r.Context(), &userID, contentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !decision.Allowed {
			responses.WriteError(r.Context(), logg, w, accesssvc.DenialError(decision))
			return
		}

		info, err := streaming.IssueStreamURL(r.Context(), decision.Content.MediaItem)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, streamResponse{
			StreamingURL: info.URL,
			ExpiresAt:    info.ExpiresAt.UTC(),
			ContentType:  info.ContentType,
		})
	}
}

// PutProgress upserts the caller's resume position for the content.
func PutProgress(svc progresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "progress service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contentID, err := uuidURLParam(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload putProgressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Upsert(r.Context(), progresssvc.UpsertInput{
			UserID:          userID,
			ContentID:       contentID,
			PositionSeconds: payload.PositionSeconds,
			DurationSeconds: payload.DurationSeconds,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProgressResponse(row.PositionSeconds, row.DurationSeconds, row.Completed, row.LastWatchedAt))
	}
}

// GetProgress returns the caller's resume position, zeroed when none exists.
func GetProgress(svc progresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "progress service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contentID, err := uuidURLParam(r, "contentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Get(r.Context(), userID, contentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if row == nil {
			responses.WriteSuccess(w, progressResponse{})
			return
		}

		responses.WriteSuccess(w, newProgressResponse(row.PositionSeconds, row.DurationSeconds, row.Completed, row.LastWatchedAt))
	}
}

type streamResponse struct {
	StreamingURL string    `json:"streaming_url"`
	ExpiresAt    time.Time `json:"expires_at"`
	ContentType  string    `json:"content_type"`
}

type putProgressRequest struct {
	PositionSeconds float64 `json:"position_seconds" validate:"gte=0"`
	DurationSeconds float64 `json:"duration_seconds" validate:"required,gt=0"`
}

type progressResponse struct {
	PositionSeconds float64    `json:"position_seconds"`
	DurationSeconds float64    `json:"duration_seconds"`
	Completed       bool       `json:"completed"`
	LastWatchedAt   *time.Time `json:"last_watched_at,omitempty"`
}

func newProgressResponse(position, duration float64, completed bool, watchedAt time.Time) progressResponse {
	at := watchedAt.UTC()
	return progressResponse{
		PositionSeconds: position,
		DurationSeconds: duration,
		Completed:       completed,
		LastWatchedAt:   &at,
	}
}
