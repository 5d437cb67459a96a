package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/domain/booking"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
)

// InMemoryBookingStore implements booking.Repository
type InMemoryBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*booking.Booking
}

// NewInMemoryBookingStore creates a new in-memory booking repository
func NewInMemoryBookingStore() *InMemoryBookingStore {
	return &InMemoryBookingStore{
		bookings: make(map[string]*booking.Booking),
	}
}

// Clear resets all stored data
func (m *InMemoryBookingStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = make(map[string]*booking.Booking)
}

func (m *InMemoryBookingStore) Create(ctx context.Context, b *booking.Booking) error {
	if b == nil || b.ID == "" {
		return ierr.NewError("booking ID cannot be empty").
			WithHint("Booking ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bookings[b.ID]; exists {
		return ierr.NewError("booking already exists").
			WithHint("Booking already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	m.bookings[b.ID] = copyBooking(b)
	return nil
}

func (m *InMemoryBookingStore) Get(ctx context.Context, id string) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.bookings[id]
	if !exists {
		return nil, ierr.NewError("booking not found").
			WithHintf("Booking not found: %s", id).
			Mark(ierr.ErrNotFound)
	}
	return copyBooking(b), nil
}

func (m *InMemoryBookingStore) Update(ctx context.Context, b *booking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bookings[b.ID]; !exists {
		return ierr.NewError("booking not found").
			WithHintf("Booking not found: %s", b.ID).
			Mark(ierr.ErrNotFound)
	}
	b.UpdatedAt = time.Now().UTC()
	m.bookings[b.ID] = copyBooking(b)
	return nil
}

// ApplySettlement mirrors the single-statement increment of the postgres
// repository: the paid total and derived fields change together under the
// store lock.
func (m *InMemoryBookingStore) ApplySettlement(ctx context.Context, id string, amount decimal.Decimal) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.bookings[id]
	if !exists {
		return nil, ierr.NewError("booking not found").
			WithHintf("Booking not found: %s", id).
			Mark(ierr.ErrNotFound)
	}

	b.AmountPaid = b.AmountPaid.Add(amount)
	b.AmountDue = b.TotalAmount.Sub(b.AmountPaid)
	if b.AmountDue.LessThanOrEqual(decimal.Zero) {
		b.PaymentStatus = types.BookingPaymentStatusPaid
		b.Status = types.BookingStatusConfirmed
	} else {
		b.PaymentStatus = types.BookingPaymentStatusPartial
		b.Status = types.BookingStatusPending
	}
	b.UpdatedAt = time.Now().UTC()

	return copyBooking(b), nil
}

// CancelIfUnpaid mirrors the guarded cancellation of the postgres
// repository.
func (m *InMemoryBookingStore) CancelIfUnpaid(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.bookings[id]
	if !exists {
		return false, ierr.NewError("booking not found").
			WithHintf("Booking not found: %s", id).
			Mark(ierr.ErrNotFound)
	}
	if b.AmountPaid.IsPositive() {
		return false, nil
	}

	b.PaymentStatus = types.BookingPaymentStatusFailed
	b.Status = types.BookingStatusCancelled
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func copyBooking(b *booking.Booking) *booking.Booking {
	dup := *b
	return &dup
}
