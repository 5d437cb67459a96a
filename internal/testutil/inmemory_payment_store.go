package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
	mu sync.Mutex
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
	}
}

func (m *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// The postgres table carries a unique index on provider_payment_id.
	existing := m.InMemoryStore.List(ctx, func(_ context.Context, item *payment.Payment) bool {
		return item.ProviderPaymentID == p.ProviderPaymentID
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("payment already exists").
			WithHintf("Payment already exists for provider id: %s", p.ProviderPaymentID).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := m.InMemoryStore.Create(ctx, p.ID, copyPayment(p)); err != nil {
		return ierr.WithError(err).
			WithHint("Payment already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (m *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment not found: %s", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(p), nil
}

func (m *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	p.UpdatedAt = time.Now().UTC()
	if err := m.InMemoryStore.Update(ctx, p.ID, copyPayment(p)); err != nil {
		return ierr.NewError("payment not found").
			WithHintf("Payment not found: %s", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (m *InMemoryPaymentStore) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*payment.Payment, error) {
	matches := m.InMemoryStore.List(ctx, func(_ context.Context, item *payment.Payment) bool {
		return item.ProviderPaymentID == providerPaymentID
	}, nil)
	if len(matches) == 0 {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment not found for provider id: %s", providerPaymentID).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(matches[0]), nil
}

func (m *InMemoryPaymentStore) GetByBookingAndProviderID(ctx context.Context, bookingID, providerPaymentID string) (*payment.Payment, error) {
	matches := m.InMemoryStore.List(ctx, func(_ context.Context, item *payment.Payment) bool {
		return item.BookingID == bookingID && item.ProviderPaymentID == providerPaymentID
	}, nil)
	if len(matches) == 0 {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment not found for booking %s and provider id %s", bookingID, providerPaymentID).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(matches[0]), nil
}

func (m *InMemoryPaymentStore) ListByBooking(ctx context.Context, bookingID string) ([]*payment.Payment, error) {
	matches := m.InMemoryStore.List(ctx, func(_ context.Context, item *payment.Payment) bool {
		return item.BookingID == bookingID
	}, func(i, j *payment.Payment) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})

	result := make([]*payment.Payment, 0, len(matches))
	for _, p := range matches {
		result = append(result, copyPayment(p))
	}
	return result, nil
}

func copyPayment(p *payment.Payment) *payment.Payment {
	dup := *p
	return &dup
}
