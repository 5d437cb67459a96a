package dto

import (
	"time"

	"github.com/lodgepoint/lodgepoint/internal/domain/booking"
	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
)

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	*booking.Booking
}

// WebhookEventResponse represents a processed webhook ledger entry in API
// responses. The raw payload is omitted.
type WebhookEventResponse struct {
	ID              string  `json:"id"`
	EventID         string  `json:"event_id"`
	EventType       string  `json:"event_type"`
	ResourceID      string  `json:"resource_id"`
	Processed       bool    `json:"processed"`
	ProcessingError *string `json:"processing_error,omitempty"`
	ProcessedAt     string  `json:"processed_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// NewWebhookEventResponse converts a ledger record to its API shape.
func NewWebhookEventResponse(e *webhookevent.WebhookEvent) *WebhookEventResponse {
	resp := &WebhookEventResponse{
		ID:              e.ID,
		EventID:         e.EventID,
		EventType:       e.EventType,
		ResourceID:      e.ResourceID,
		Processed:       e.Processed,
		ProcessingError: e.ProcessingError,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
	if e.ProcessedAt != nil {
		resp.ProcessedAt = e.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

// PaymentActivityResponse is the reconciliation view of one booking: its
// balances, every payment attempt, and the webhook deliveries that
// concerned those payments.
type PaymentActivityResponse struct {
	Booking       *BookingResponse        `json:"booking"`
	Payments      []*PaymentResponse      `json:"payments"`
	WebhookEvents []*WebhookEventResponse `json:"webhook_events"`
}
