package payment

import (
	"time"

	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
)

// Payment represents one attempt to collect money against a booking. A
// booking may carry several payments: failed retries, or a downpayment
// followed by a balance payment.
type Payment struct {
	ID        string `json:"id" db:"id"`
	BookingID string `json:"booking_id" db:"booking_id"`

	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Currency string          `json:"currency" db:"currency"`

	PaymentMethod types.PaymentMethod   `json:"payment_method" db:"payment_method"`
	Provider      types.PaymentProvider `json:"provider" db:"provider"`

	// ProviderPaymentID is the natural key for find-or-create: the
	// provider's payment-intent id when one exists, else the checkout
	// session id. Unique across both id spaces.
	ProviderPaymentID string  `json:"provider_payment_id" db:"provider_payment_id"`
	CheckoutURL       *string `json:"checkout_url,omitempty" db:"checkout_url"`

	Status        types.PaymentStatus `json:"status" db:"status"`
	PaidAt        *time.Time          `json:"paid_at,omitempty" db:"paid_at"`
	FailedAt      *time.Time          `json:"failed_at,omitempty" db:"failed_at"`
	FailureReason *string             `json:"failure_reason,omitempty" db:"failure_reason"`
	TransactionID *string             `json:"transaction_id,omitempty" db:"transaction_id"`
	Description   string              `json:"description" db:"description"`
	Metadata      types.Metadata      `json:"metadata,omitempty" db:"metadata"`

	types.BaseModel
}

// Validate validates the payment
func (p *Payment) Validate() error {
	if p.BookingID == "" {
		return ierr.NewError("invalid booking id").
			WithHint("Booking id is required").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.IsZero() || p.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	if p.ProviderPaymentID == "" {
		return ierr.NewError("invalid provider payment id").
			WithHint("Provider payment id is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.PaymentMethod.Validate(); err != nil {
		return ierr.NewError("invalid payment method").
			WithHint("Payment method is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the payment
func (p *Payment) TableName() string {
	return "payments"
}
