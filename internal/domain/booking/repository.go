package booking

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for booking persistence.
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, booking *Booking) error

	// ApplySettlement adds amount to the booking's paid total and derives
	// amount_due, payment_status and status from the result, all in a
	// single atomic increment at the storage layer. It must never be
	// implemented as a read-modify-write in application memory: two
	// concurrent settlements for the same booking would clobber each
	// other's contribution. Returns the booking as it stands after the
	// update.
	ApplySettlement(ctx context.Context, id string, amount decimal.Decimal) (*Booking, error)

	// CancelIfUnpaid marks the booking payment-failed and cancelled, but
	// only when nothing has been paid against it yet. Returns true when
	// the booking was cancelled. A partially paid booking is left
	// untouched so a failed balance payment cannot void a valid
	// downpayment.
	CancelIfUnpaid(ctx context.Context, id string) (bool, error)
}
