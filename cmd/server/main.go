package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/lodgepoint/lodgepoint/internal/api"
	v1 "github.com/lodgepoint/lodgepoint/internal/api/v1"
	"github.com/lodgepoint/lodgepoint/internal/cache"
	"github.com/lodgepoint/lodgepoint/internal/config"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/postgres"
	repo "github.com/lodgepoint/lodgepoint/internal/repository/postgres"
	"github.com/lodgepoint/lodgepoint/internal/service"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Load .env for local development; a missing file is fine.
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			providePostgresClient,

			// PayMongo
			paymongo.NewClient,
			provideCheckoutClient,

			// Repositories
			repo.NewBookingRepository,
			repo.NewPaymentRepository,
			repo.NewWebhookEventRepository,

			// Services
			service.NewServiceParams,
			service.NewReconciliationService,
			service.NewWebhookService,
			service.NewPaymentService,
			service.NewBookingService,

			// API
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(startAPIServer),
	)
	app.Run()
}

func providePostgresClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideCheckoutClient(client *paymongo.Client) service.CheckoutClient {
	return client
}

func provideHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	webhookService service.WebhookService,
	paymentService service.PaymentService,
	bookingService service.BookingService,
) api.Handlers {
	return api.Handlers{
		Webhook: v1.NewWebhookHandler(webhookService, cfg, log),
		Payment: v1.NewPaymentHandler(paymentService, log),
		Booking: v1.NewBookingHandler(bookingService, log),
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	db *postgres.DB,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			db.Close()
			return nil
		},
	})
}
