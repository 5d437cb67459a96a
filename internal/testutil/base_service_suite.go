package testutil

import (
	"context"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/cache"
	"github.com/lodgepoint/lodgepoint/internal/config"
	"github.com/lodgepoint/lodgepoint/internal/domain/booking"
	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/postgres"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	BookingRepo      booking.Repository
	PaymentRepo      payment.Repository
	WebhookEventRepo webhookevent.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     postgres.IClient
	cache  cache.Cache
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	cfg.PayMongo = config.PayMongoConfig{
		APIBaseURL:    "https://api.paymongo.test/v1",
		SecretKey:     "sk_test_key",
		WebhookSecret: "whsec_test_secret",
		SuccessURL:    "https://example.com/payment/success",
		CancelURL:     "https://example.com/payment/cancel",
	}
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache()
	s.stores = Stores{
		BookingRepo:      NewInMemoryBookingStore(),
		PaymentRepo:      NewInMemoryPaymentStore(),
		WebhookEventRepo: NewInMemoryWebhookEventStore(),
	}
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

// ClearStores resets all in-memory stores
func (s *BaseServiceTestSuite) ClearStores() {
	if store, ok := s.stores.BookingRepo.(*InMemoryBookingStore); ok {
		store.Clear()
	}
	if store, ok := s.stores.PaymentRepo.(*InMemoryPaymentStore); ok {
		store.Clear()
	}
	if store, ok := s.stores.WebhookEventRepo.(*InMemoryWebhookEventStore); ok {
		store.Clear()
	}
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// GetUUID returns a unique identifier for tests
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
