package booking

import (
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
)

// Booking is the aggregate that payments settle against. AmountPaid and
// AmountDue are maintained by the settlement path only; after every
// settlement AmountPaid + AmountDue equals TotalAmount.
type Booking struct {
	ID            string `json:"id" db:"id"`
	BookingNumber string `json:"booking_number" db:"booking_number"`
	PropertyID    string `json:"property_id" db:"property_id"`
	RoomID        string `json:"room_id" db:"room_id"`
	GuestName     string `json:"guest_name" db:"guest_name"`
	GuestEmail    string `json:"guest_email" db:"guest_email"`

	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	AmountDue   decimal.Decimal `json:"amount_due" db:"amount_due"`

	PaymentStatus types.BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	Status        types.BookingStatus        `json:"status" db:"status"`

	types.BaseModel
}

// IsSettled reports whether the booking has no outstanding balance.
func (b *Booking) IsSettled() bool {
	return b.AmountDue.LessThanOrEqual(decimal.Zero)
}
