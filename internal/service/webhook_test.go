package service

import (
	"context"
	"sync"
	"testing"

	"github.com/lodgepoint/lodgepoint/internal/domain/booking"
	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/testutil"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service WebhookService
	params  ServiceParams
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Cache:            s.GetCache(),
		BookingRepo:      stores.BookingRepo,
		PaymentRepo:      stores.PaymentRepo,
		WebhookEventRepo: stores.WebhookEventRepo,
		CheckoutClient:   testutil.NewMockCheckoutClient(),
	}
	s.service = NewWebhookService(s.params, NewReconciliationService(s.params))
}

func (s *WebhookServiceSuite) createBooking(total string) *booking.Booking {
	amount, err := decimal.NewFromString(total)
	s.Require().NoError(err)

	b := &booking.Booking{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BOOKING),
		BookingNumber: types.GenerateBookingNumber(),
		PropertyID:    "prop_01",
		RoomID:        "room_01",
		GuestName:     "Juan dela Cruz",
		GuestEmail:    "juan@example.com",
		TotalAmount:   amount,
		AmountPaid:    decimal.Zero,
		AmountDue:     amount,
		PaymentStatus: types.BookingPaymentStatusUnpaid,
		Status:        types.BookingStatusPending,
		BaseModel:     types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().BookingRepo.Create(s.GetContext(), b))
	return b
}

func (s *WebhookServiceSuite) settleEvent(eventID, bookingID string, amountMinor int64) *paymongo.Event {
	return &paymongo.Event{
		ID:         eventID,
		Type:       paymongo.EventTypeCheckoutPaid,
		ResourceID: "cs_" + eventID,
		Kind:       paymongo.EventKindCheckoutSessionSettled,
		CheckoutSession: &paymongo.CheckoutSession{
			LineItems: []paymongo.LineItem{
				{Name: "Room booking", Currency: "PHP", Amount: amountMinor, Quantity: 1},
			},
			SuccessURL: "https://example.com/success",
			CancelURL:  "https://example.com/cancel",
			Metadata:   map[string]string{"booking_id": bookingID},
			PaymentIntent: &paymongo.PaymentResource{
				ID:   "pi_" + eventID,
				Type: "payment_intent",
				Attributes: paymongo.PaymentAttributes{
					Amount:   amountMinor,
					Currency: "PHP",
					Status:   "succeeded",
					Source:   &paymongo.Source{ID: "src_1", Type: "gcash"},
				},
			},
		},
	}
}

func (s *WebhookServiceSuite) ledgerRecord(eventID string) *webhookevent.WebhookEvent {
	record, err := s.GetStores().WebhookEventRepo.GetByEventID(s.GetContext(), eventID)
	s.Require().NoError(err)
	return record
}

func (s *WebhookServiceSuite) TestProcessSettlesAndRecordsLedger() {
	b := s.createBooking("5000")
	raw := []byte(`{"data":{"id":"evt_1"}}`)
	event := s.settleEvent("evt_1", b.ID, 500000)

	result, err := s.service.ProcessEvent(s.GetContext(), raw, event)
	s.Require().NoError(err)
	s.True(result.Processed)
	s.False(result.Duplicate)

	record := s.ledgerRecord("evt_1")
	s.True(record.Processed)
	s.Nil(record.ProcessingError)
	s.NotNil(record.ProcessedAt)
	s.Equal("cs_evt_1", record.ResourceID)
	s.JSONEq(string(raw), string(record.RawPayload))

	updated, err := s.GetStores().BookingRepo.Get(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal("5000", updated.AmountPaid.String())

	// The settled payment points back at the ledger record that carried
	// the delivery.
	payments, err := s.GetStores().PaymentRepo.ListByBooking(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(record.ID, payments[0].Metadata["webhook_event_id"])
	s.NotEmpty(payments[0].Metadata["processed_at"])
}

func (s *WebhookServiceSuite) TestDuplicateDeliveryShortCircuits() {
	b := s.createBooking("5000")
	raw := []byte(`{"data":{"id":"evt_1"}}`)
	event := s.settleEvent("evt_1", b.ID, 500000)

	first, err := s.service.ProcessEvent(s.GetContext(), raw, event)
	s.Require().NoError(err)
	s.True(first.Processed)

	second, err := s.service.ProcessEvent(s.GetContext(), raw, event)
	s.Require().NoError(err)
	s.True(second.Processed)
	s.True(second.Duplicate)

	// The booking was mutated exactly once.
	updated, err := s.GetStores().BookingRepo.Get(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal("5000", updated.AmountPaid.String())

	payments, err := s.GetStores().PaymentRepo.ListByBooking(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Len(payments, 1)
}

func (s *WebhookServiceSuite) TestPreExistingProcessedRecordShortCircuits() {
	b := s.createBooking("5000")
	event := s.settleEvent("evt_1", b.ID, 500000)

	// Another instance already finalized this event id.
	record := &webhookevent.WebhookEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventID:    "evt_1",
		EventType:  event.Type,
		ResourceID: event.ResourceID,
		Processed:  true,
		RawPayload: []byte(`{}`),
		BaseModel:  types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().WebhookEventRepo.Create(s.GetContext(), record))

	result, err := s.service.ProcessEvent(s.GetContext(), []byte(`{}`), event)
	s.Require().NoError(err)
	s.True(result.Processed)
	s.True(result.Duplicate)

	untouched, err := s.GetStores().BookingRepo.Get(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.True(untouched.AmountPaid.IsZero())
}

func (s *WebhookServiceSuite) TestFailedAttemptIsReprocessable() {
	raw := []byte(`{"data":{"id":"evt_1"}}`)

	// First delivery fails because the booking does not exist yet.
	event := s.settleEvent("evt_1", "book_missing", 500000)
	result, err := s.service.ProcessEvent(s.GetContext(), raw, event)
	s.Require().NoError(err)
	s.False(result.Processed)

	record := s.ledgerRecord("evt_1")
	s.False(record.Processed)
	s.Require().NotNil(record.ProcessingError)
	s.NotEmpty(*record.ProcessingError)

	// The booking appears; the redelivery of the same event id completes.
	b := s.createBooking("5000")
	retryEvent := s.settleEvent("evt_1", b.ID, 500000)
	result, err = s.service.ProcessEvent(s.GetContext(), raw, retryEvent)
	s.Require().NoError(err)
	s.True(result.Processed)
	s.False(result.Duplicate)

	record = s.ledgerRecord("evt_1")
	s.True(record.Processed)
	s.Nil(record.ProcessingError)
}

func (s *WebhookServiceSuite) TestUnhandledEventAcknowledged() {
	raw := []byte(`{"data":{"id":"evt_1"}}`)
	event := &paymongo.Event{
		ID:         "evt_1",
		Type:       "payment.refunded",
		ResourceID: "pay_1",
		Kind:       paymongo.EventKindUnhandled,
	}

	result, err := s.service.ProcessEvent(s.GetContext(), raw, event)
	s.Require().NoError(err)
	s.False(result.Processed)
	s.False(result.Duplicate)

	// Finalized without an error, but not marked processed.
	record := s.ledgerRecord("evt_1")
	s.False(record.Processed)
	s.Nil(record.ProcessingError)
	s.NotNil(record.ProcessedAt)
}

func (s *WebhookServiceSuite) TestLedgerOutageSurfacesError() {
	b := s.createBooking("5000")
	s.params.WebhookEventRepo = &unavailableWebhookEventRepo{}
	service := NewWebhookService(s.params, NewReconciliationService(s.params))

	_, err := service.ProcessEvent(s.GetContext(), []byte(`{}`), s.settleEvent("evt_1", b.ID, 500000))
	s.Error(err)
	s.True(ierr.IsDatabase(err))

	// Nothing was settled without a ledger claim.
	untouched, err := s.GetStores().BookingRepo.Get(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.True(untouched.AmountPaid.IsZero())
}

func (s *WebhookServiceSuite) TestConcurrentDeliveriesSettleOnce() {
	b := s.createBooking("5000")
	raw := []byte(`{"data":{"id":"evt_1"}}`)

	var wg sync.WaitGroup
	results := make([]*ProcessResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := s.service.ProcessEvent(s.GetContext(), raw, s.settleEvent("evt_1", b.ID, 500000))
			s.NoError(err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	updated, err := s.GetStores().BookingRepo.Get(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal("5000", updated.AmountPaid.String())

	payments, err := s.GetStores().PaymentRepo.ListByBooking(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Len(payments, 1)
}

// unavailableWebhookEventRepo simulates a down ledger.
type unavailableWebhookEventRepo struct{}

func (r *unavailableWebhookEventRepo) err() error {
	return ierr.NewError("connection refused").
		WithHint("Database unavailable").
		Mark(ierr.ErrDatabase)
}

func (r *unavailableWebhookEventRepo) Create(ctx context.Context, e *webhookevent.WebhookEvent) error {
	return r.err()
}

func (r *unavailableWebhookEventRepo) Get(ctx context.Context, id string) (*webhookevent.WebhookEvent, error) {
	return nil, r.err()
}

func (r *unavailableWebhookEventRepo) GetByEventID(ctx context.Context, eventID string) (*webhookevent.WebhookEvent, error) {
	return nil, r.err()
}

func (r *unavailableWebhookEventRepo) MarkProcessed(ctx context.Context, id string) error {
	return r.err()
}

func (r *unavailableWebhookEventRepo) MarkFailed(ctx context.Context, id string, processingError string) error {
	return r.err()
}

func (r *unavailableWebhookEventRepo) MarkIgnored(ctx context.Context, id string) error {
	return r.err()
}

func (r *unavailableWebhookEventRepo) ListByResourceIDs(ctx context.Context, resourceIDs []string) ([]*webhookevent.WebhookEvent, error) {
	return nil, r.err()
}
