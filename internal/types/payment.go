package types

import (
	"fmt"

	"github.com/samber/lo"
)

// PaymentStatus represents the status of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusPaid,
		PaymentStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid payment status: %s", s)
	}
	return nil
}

// IsTerminal reports whether the status admits no further transitions.
// A payment never leaves PAID or FAILED.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// PaymentMethod represents how a payment was collected
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodGCash        PaymentMethod = "GCASH"
	PaymentMethodPayMaya      PaymentMethod = "PAYMAYA"
	PaymentMethodGrabPay      PaymentMethod = "GRAB_PAY"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodCreditCard,
		PaymentMethodGCash,
		PaymentMethodPayMaya,
		PaymentMethodGrabPay,
		PaymentMethodBankTransfer,
	}
	if !lo.Contains(allowed, m) {
		return fmt.Errorf("invalid payment method: %s", m)
	}
	return nil
}

// PaymentProvider identifies the external payment gateway
type PaymentProvider string

const (
	PaymentProviderPayMongo PaymentProvider = "paymongo"
	PaymentProviderManual   PaymentProvider = "manual"
)
