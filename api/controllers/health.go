package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/playgate-app/playgate-backend/api/responses"
	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/redis"
	"github.com/playgate-app/playgate-backend/pkg/storage/gcs"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlayGate-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports 503 when any is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlayGate-Env", cfg.App.Env)

		var errs error
		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
				checks["db"] = "down"
			} else {
				checks["db"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
				checks["redis"] = "down"
			} else {
				checks["redis"] = "ok"
			}
		}
		if gcsP != nil {
			if err := gcsP.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
				checks["gcs"] = "down"
			} else {
				checks["gcs"] = "ok"
			}
		}

		if errs != nil {
			if logg != nil {
				ctx := logg.WithField(r.Context(), "error", errs.Error())
				logg.Warn(ctx, "health.not_ready")
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependency check failed"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
