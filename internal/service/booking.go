package service

import (
	"context"

	"github.com/lodgepoint/lodgepoint/internal/api/dto"
	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	"github.com/samber/lo"
)

// BookingService exposes the reconciliation view of bookings.
type BookingService interface {
	GetBooking(ctx context.Context, id string) (*dto.BookingResponse, error)
	// GetPaymentActivity returns the booking's balances, every payment
	// attempt, and the webhook deliveries that concerned those payments.
	// Clients poll it after checkout to observe settlement.
	GetPaymentActivity(ctx context.Context, bookingID string) (*dto.PaymentActivityResponse, error)
}

type bookingService struct {
	ServiceParams
}

// NewBookingService creates a booking service.
func NewBookingService(params ServiceParams) BookingService {
	return &bookingService{ServiceParams: params}
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*dto.BookingResponse, error) {
	b, err := s.BookingRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.BookingResponse{Booking: b}, nil
}

func (s *bookingService) GetPaymentActivity(ctx context.Context, bookingID string) (*dto.PaymentActivityResponse, error) {
	b, err := s.BookingRepo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	resourceIDs := lo.Uniq(lo.FilterMap(payments, func(p *payment.Payment, _ int) (string, bool) {
		return p.ProviderPaymentID, p.ProviderPaymentID != ""
	}))

	events, err := s.WebhookEventRepo.ListByResourceIDs(ctx, resourceIDs)
	if err != nil {
		return nil, err
	}

	resp := &dto.PaymentActivityResponse{
		Booking:       &dto.BookingResponse{Booking: b},
		Payments:      make([]*dto.PaymentResponse, 0, len(payments)),
		WebhookEvents: make([]*dto.WebhookEventResponse, 0, len(events)),
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, &dto.PaymentResponse{Payment: p})
	}
	for _, e := range events {
		resp.WebhookEvents = append(resp.WebhookEvents, dto.NewWebhookEventResponse(e))
	}
	return resp, nil
}
