package payment

import "context"

// Repository defines the interface for payment persistence
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error

	// GetByProviderPaymentID looks a payment up by the provider's resource
	// id alone; intent ids are globally unique on the provider side.
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*Payment, error)

	// GetByBookingAndProviderID is the find half of the find-or-create
	// keyed on (booking id, provider resource id).
	GetByBookingAndProviderID(ctx context.Context, bookingID, providerPaymentID string) (*Payment, error)

	ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error)
}
