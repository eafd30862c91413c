package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/playgate-app/playgate-backend/api/routes"
	"github.com/playgate-app/playgate-backend/internal/access"
	"github.com/playgate-app/playgate-backend/internal/checkout"
	"github.com/playgate-app/playgate-backend/internal/content"
	"github.com/playgate-app/playgate-backend/internal/memberships"
	"github.com/playgate-app/playgate-backend/internal/organizations"
	"github.com/playgate-app/playgate-backend/internal/progress"
	"github.com/playgate-app/playgate-backend/internal/purchases"
	"github.com/playgate-app/playgate-backend/internal/streaming"
	paymentwebhook "github.com/playgate-app/playgate-backend/internal/webhooks/payment"
	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/metrics"
	"github.com/playgate-app/playgate-backend/pkg/migrate"
	"github.com/playgate-app/playgate-backend/pkg/outbox"
	"github.com/playgate-app/playgate-backend/pkg/redis"
	"github.com/playgate-app/playgate-backend/pkg/storage/gcs"
	"github.com/playgate-app/playgate-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()
	if !gcsClient.CanSign() {
		logg.Warn(context.Background(), "gcs credentials cannot sign urls, streaming will fail")
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment gateway client", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)
	accessMetrics := metrics.NewAccessMetrics(prometheus.DefaultRegisterer)

	purchaseRepo := purchases.NewRepository(dbClient.DB())
	contentRepo := content.NewRepository(dbClient.DB())
	membershipRepo := memberships.NewRepository(dbClient.DB())
	organizationRepo := organizations.NewRepository(dbClient.DB())
	progressRepo := progress.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	purchaseService, err := purchases.NewService(purchases.ServiceParams{
		Repo:              purchaseRepo,
		ContentRepo:       contentRepo,
		OrganizationRepo:  organizationRepo,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Fees:              cfg.Fees,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	webhookService, err := paymentwebhook.NewService(paymentwebhook.ServiceParams{
		Ledger: purchaseService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paymentwebhook.NewIdempotencyGuard(redisClient, cfg.Stream.WebhookDedupe, "webhook:payment")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	gatewayClient := checkout.NewGatewayClient(stripeClient)
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		ContentRepo:  contentRepo,
		PurchaseRepo: purchaseRepo,
		Gateway:      gatewayClient,
		Config:       cfg.Gateway,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	accessService, err := access.NewService(access.ServiceParams{
		ContentRepo:    contentRepo,
		PurchaseRepo:   purchaseRepo,
		MembershipRepo: membershipRepo,
		Metrics:        accessMetrics,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create access service", err)
		os.Exit(1)
	}

	streamingService, err := streaming.NewService(streaming.ServiceParams{
		Signer: gcsClient,
		Config: cfg.Stream,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create streaming service", err)
		os.Exit(1)
	}

	progressService, err := progress.NewService(progress.ServiceParams{
		Repo:    progressRepo,
		Limiter: redisClient,
		Config:  cfg.Progress,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create progress service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			stripeClient,
			webhookService,
			webhookGuard,
			webhookMetrics,
			purchaseService,
			checkoutService,
			gatewayClient,
			accessService,
			streamingService,
			progressService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
