package service

import (
	"testing"

	"github.com/lodgepoint/lodgepoint/internal/domain/booking"
	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/testutil"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BookingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BookingService
}

func TestBookingService(t *testing.T) {
	suite.Run(t, new(BookingServiceSuite))
}

func (s *BookingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewBookingService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Cache:            s.GetCache(),
		BookingRepo:      stores.BookingRepo,
		PaymentRepo:      stores.PaymentRepo,
		WebhookEventRepo: stores.WebhookEventRepo,
		CheckoutClient:   testutil.NewMockCheckoutClient(),
	})
}

func (s *BookingServiceSuite) createBooking() *booking.Booking {
	b := &booking.Booking{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BOOKING),
		BookingNumber: types.GenerateBookingNumber(),
		PropertyID:    "prop_01",
		RoomID:        "room_01",
		GuestName:     "Juan dela Cruz",
		GuestEmail:    "juan@example.com",
		TotalAmount:   decimal.NewFromInt(10000),
		AmountPaid:    decimal.NewFromInt(3000),
		AmountDue:     decimal.NewFromInt(7000),
		PaymentStatus: types.BookingPaymentStatusPartial,
		Status:        types.BookingStatusPending,
		BaseModel:     types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().BookingRepo.Create(s.GetContext(), b))
	return b
}

func (s *BookingServiceSuite) createPayment(bookingID, providerID string) *payment.Payment {
	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		BookingID:         bookingID,
		Amount:            decimal.NewFromInt(3000),
		Currency:          "PHP",
		PaymentMethod:     types.PaymentMethodGCash,
		Provider:          types.PaymentProviderPayMongo,
		ProviderPaymentID: providerID,
		Status:            types.PaymentStatusPaid,
		BaseModel:         types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().PaymentRepo.Create(s.GetContext(), p))
	return p
}

func (s *BookingServiceSuite) createWebhookEvent(eventID, resourceID string, processed bool) {
	e := &webhookevent.WebhookEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventID:    eventID,
		EventType:  "checkout_session.payment.paid",
		ResourceID: resourceID,
		Processed:  processed,
		RawPayload: []byte(`{}`),
		BaseModel:  types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().WebhookEventRepo.Create(s.GetContext(), e))
}

func (s *BookingServiceSuite) TestGetBooking() {
	b := s.createBooking()

	resp, err := s.service.GetBooking(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Equal(b.ID, resp.ID)
	s.Equal(b.BookingNumber, resp.BookingNumber)

	_, err = s.service.GetBooking(s.GetContext(), "book_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *BookingServiceSuite) TestGetPaymentActivity() {
	b := s.createBooking()
	p1 := s.createPayment(b.ID, "pi_1")
	p2 := s.createPayment(b.ID, "cs_2")

	// Events for this booking's payments, plus one for someone else.
	s.createWebhookEvent("evt_1", "pi_1", true)
	s.createWebhookEvent("evt_2", "cs_2", false)
	s.createWebhookEvent("evt_3", "pi_other", true)

	resp, err := s.service.GetPaymentActivity(s.GetContext(), b.ID)
	s.Require().NoError(err)

	s.Equal(b.ID, resp.Booking.ID)
	s.Equal("3000", resp.Booking.AmountPaid.String())
	s.Len(resp.Payments, 2)

	s.Require().Len(resp.WebhookEvents, 2)
	eventIDs := []string{resp.WebhookEvents[0].EventID, resp.WebhookEvents[1].EventID}
	s.ElementsMatch([]string{"evt_1", "evt_2"}, eventIDs)

	paymentIDs := []string{resp.Payments[0].ID, resp.Payments[1].ID}
	s.ElementsMatch([]string{p1.ID, p2.ID}, paymentIDs)
}

func (s *BookingServiceSuite) TestGetPaymentActivityNoPayments() {
	b := s.createBooking()

	resp, err := s.service.GetPaymentActivity(s.GetContext(), b.ID)
	s.Require().NoError(err)
	s.Empty(resp.Payments)
	s.Empty(resp.WebhookEvents)
}

func (s *BookingServiceSuite) TestGetPaymentActivityUnknownBooking() {
	_, err := s.service.GetPaymentActivity(s.GetContext(), "book_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
