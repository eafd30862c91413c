package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playgate-app/playgate-backend/api/controllers"
	webhookcontrollers "github.com/playgate-app/playgate-backend/api/controllers/webhooks"
	"github.com/playgate-app/playgate-backend/api/middleware"
	accesssvc "github.com/playgate-app/playgate-backend/internal/access"
	checkoutsvc "github.com/playgate-app/playgate-backend/internal/checkout"
	progresssvc "github.com/playgate-app/playgate-backend/internal/progress"
	purchasesvc "github.com/playgate-app/playgate-backend/internal/purchases"
	streamingsvc "github.com/playgate-app/playgate-backend/internal/streaming"
	paymentwebhook "github.com/playgate-app/playgate-backend/internal/webhooks/payment"
	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/metrics"
	"github.com/playgate-app/playgate-backend/pkg/redis"
	"github.com/playgate-app/playgate-backend/pkg/storage/gcs"
	"github.com/playgate-app/playgate-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	stripeClient *stripe.Client,
	webhookService *paymentwebhook.Service,
	webhookGuard *paymentwebhook.IdempotencyGuard,
	webhookMetrics *metrics.WebhookMetrics,
	purchaseService purchasesvc.Service,
	checkoutService checkoutsvc.Service,
	gatewayClient checkoutsvc.GatewayClient,
	accessService accesssvc.Service,
	streamingService streamingsvc.Service,
	progressService progresssvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	tolerance := cfg.Gateway.SignatureTolerance
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", webhookcontrollers.PaymentWebhook(webhookService, stripeClient, webhookGuard, tolerance, webhookMetrics, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout", controllers.CreateCheckout(checkoutService, logg))
		r.Get("/purchases", controllers.ListPurchases(purchaseService, logg))

		r.Route("/access/content/{contentID}", func(r chi.Router) {
			r.Get("/stream", controllers.StreamContent(accessService, streamingService, logg))
			r.Put("/progress", controllers.PutProgress(progressService, logg))
			r.Get("/progress", controllers.GetProgress(progressService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Post("/customers/{userID}/grant-access/{contentID}", controllers.GrantAccess(purchaseService, logg))
		r.Post("/purchases/{purchaseID}/refund", controllers.RefundPurchase(purchaseService, gatewayClient, logg))
	})

	return r
}
