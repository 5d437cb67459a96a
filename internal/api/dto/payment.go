package dto

import (
	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
)

// CreateCheckoutRequest starts a hosted checkout for a booking. When Amount
// is zero the booking's outstanding balance is charged.
type CreateCheckoutRequest struct {
	BookingID   string          `json:"booking_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (r *CreateCheckoutRequest) Validate() error {
	if r.BookingID == "" {
		return ierr.NewError("booking_id is required").
			WithHint("Booking id is required").
			Mark(ierr.ErrValidation)
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreateCheckoutResponse carries the hosted checkout handoff.
type CreateCheckoutResponse struct {
	PaymentID   string `json:"payment_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// ConfirmManualPaymentRequest settles a pending payment collected outside
// the provider, e.g. cash or bank transfer at the front desk.
type ConfirmManualPaymentRequest struct {
	PaymentID     string              `json:"payment_id" binding:"required"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
	TransactionID string              `json:"transaction_id"`
}

func (r *ConfirmManualPaymentRequest) Validate() error {
	if r.PaymentID == "" {
		return ierr.NewError("payment_id is required").
			WithHint("Payment id is required").
			Mark(ierr.ErrValidation)
	}
	if r.PaymentMethod != "" {
		if err := r.PaymentMethod.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("Payment method is invalid").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	*payment.Payment
}
