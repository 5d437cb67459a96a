package service

import (
	"context"

	"github.com/lodgepoint/lodgepoint/internal/cache"
	"github.com/lodgepoint/lodgepoint/internal/config"
	"github.com/lodgepoint/lodgepoint/internal/domain/booking"
	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/postgres"
)

// CheckoutClient is the slice of the provider API the services call.
// Production wires *paymongo.Client; tests substitute a fake.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, req *paymongo.CreateCheckoutSessionRequest) (*paymongo.CheckoutSessionResult, error)
}

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache

	BookingRepo      booking.Repository
	PaymentRepo      payment.Repository
	WebhookEventRepo webhookevent.Repository

	CheckoutClient CheckoutClient
}

// NewServiceParams creates a new ServiceParams with all dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	bookingRepo booking.Repository,
	paymentRepo payment.Repository,
	webhookEventRepo webhookevent.Repository,
	checkoutClient CheckoutClient,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		Cache:            cache,
		BookingRepo:      bookingRepo,
		PaymentRepo:      paymentRepo,
		WebhookEventRepo: webhookEventRepo,
		CheckoutClient:   checkoutClient,
	}
}
