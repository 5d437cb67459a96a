package types

import (
	"fmt"

	"github.com/samber/lo"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) String() string {
	return string(s)
}

func (s BookingStatus) Validate() error {
	allowed := []BookingStatus{
		BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid booking status: %s", s)
	}
	return nil
}

// BookingPaymentStatus represents the derived payment state of a booking
type BookingPaymentStatus string

const (
	BookingPaymentStatusUnpaid  BookingPaymentStatus = "UNPAID"
	BookingPaymentStatusPartial BookingPaymentStatus = "PARTIAL"
	BookingPaymentStatusPaid    BookingPaymentStatus = "PAID"
	BookingPaymentStatusFailed  BookingPaymentStatus = "FAILED"
)

func (s BookingPaymentStatus) String() string {
	return string(s)
}

func (s BookingPaymentStatus) Validate() error {
	allowed := []BookingPaymentStatus{
		BookingPaymentStatusUnpaid,
		BookingPaymentStatusPartial,
		BookingPaymentStatusPaid,
		BookingPaymentStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid booking payment status: %s", s)
	}
	return nil
}
