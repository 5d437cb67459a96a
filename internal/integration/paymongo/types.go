package paymongo

import (
	"strings"

	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem is one line of a checkout session. Amount is in minor currency
// units (centavos).
type LineItem struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	Quantity int64  `json:"quantity"`
}

// CheckoutSession is the attributes payload of a checkout_session resource.
type CheckoutSession struct {
	CheckoutURL     string            `json:"checkout_url,omitempty"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	Status          string            `json:"status,omitempty"`
	LineItems       []LineItem        `json:"line_items"`
	PaymentIntent   *PaymentResource  `json:"payment_intent,omitempty"`
	Payments        []PaymentResource `json:"payments,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	SuccessURL      string            `json:"success_url"`
	CancelURL       string            `json:"cancel_url"`
	ClientKey       string            `json:"client_key,omitempty"`
}

// PaymentResource is an embedded payment or payment_intent sub-resource.
type PaymentResource struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes PaymentAttributes `json:"attributes"`
}

// PaymentAttributes is the attributes payload shared by payment and
// payment_intent resources. Amount is in minor currency units.
type PaymentAttributes struct {
	Amount           int64                  `json:"amount"`
	Currency         string                 `json:"currency"`
	Status           string                 `json:"status"`
	Source           *Source                `json:"source,omitempty"`
	PaymentMethod    *PaymentMethodResource `json:"payment_method,omitempty"`
	Description      string                 `json:"description,omitempty"`
	StatementDesc    string                 `json:"statement_descriptor,omitempty"`
	Metadata         map[string]string      `json:"metadata,omitempty"`
	LastPaymentError *PaymentError          `json:"last_payment_error,omitempty"`
}

// Source describes how a payment was funded.
type Source struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Brand   string `json:"brand,omitempty"`
	Last4   string `json:"last4,omitempty"`
	Country string `json:"country,omitempty"`
}

// PaymentMethodResource is the payment_method sub-resource on an intent.
type PaymentMethodResource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Type    string `json:"type"`
		Details struct {
			Card *CardDetails `json:"card,omitempty"`
		} `json:"details"`
	} `json:"attributes"`
}

// CardDetails carries card specifics from a payment method.
type CardDetails struct {
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	Brand    string `json:"brand"`
	Country  string `json:"country,omitempty"`
}

// PaymentError is the provider's last-error detail on a failed attempt.
type PaymentError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Source string `json:"source,omitempty"`
}

// RepresentativePayment resolves the payment-intent sub-object that best
// describes how the session settled: the embedded payment_intent when
// present, else the first element of the payments array, else nil.
func (s *CheckoutSession) RepresentativePayment() *PaymentResource {
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		return s.PaymentIntent
	}
	if len(s.Payments) > 0 {
		return &s.Payments[0]
	}
	return nil
}

// LineItemTotal sums amount*quantity over the line items and converts from
// minor to major currency units.
func (s *CheckoutSession) LineItemTotal() decimal.Decimal {
	var total int64
	for _, item := range s.LineItems {
		total += item.Amount * item.Quantity
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(100))
}

// Currency returns the session currency from its first line item,
// defaulting to PHP.
func (s *CheckoutSession) Currency() string {
	if len(s.LineItems) > 0 && s.LineItems[0].Currency != "" {
		return strings.ToUpper(s.LineItems[0].Currency)
	}
	return "PHP"
}

// MetadataValue returns the metadata value for key, or empty string.
func (s *CheckoutSession) MetadataValue(key string) string {
	return s.Metadata[key]
}

// SourceDetails resolves the funding source for the attributes, preferring
// the card details on the payment_method sub-resource over the top-level
// source.
func (a *PaymentAttributes) SourceDetails() *Source {
	if a.PaymentMethod != nil && a.PaymentMethod.Attributes.Details.Card != nil {
		card := a.PaymentMethod.Attributes.Details.Card
		return &Source{
			ID:      a.PaymentMethod.ID,
			Type:    "card",
			Brand:   card.Brand,
			Last4:   card.Last4,
			Country: card.Country,
		}
	}
	if a.Source != nil {
		return a.Source
	}
	return nil
}

// LastErrorDetail returns the provider's failure detail, or empty string.
func (a *PaymentAttributes) LastErrorDetail() string {
	if a.LastPaymentError == nil {
		return ""
	}
	return a.LastPaymentError.Detail
}

// PaymentMethodFromSource maps a provider source type onto the local
// payment method enum. The known e-wallet sub-types map one to one;
// everything else, including an absent source, deliberately falls back to
// credit card rather than failing the settlement.
func PaymentMethodFromSource(source *Source) types.PaymentMethod {
	if source == nil {
		return types.PaymentMethodCreditCard
	}
	switch strings.ToLower(source.Type) {
	case "gcash":
		return types.PaymentMethodGCash
	case "paymaya", "maya":
		return types.PaymentMethodPayMaya
	case "grab_pay", "grabpay":
		return types.PaymentMethodGrabPay
	default:
		return types.PaymentMethodCreditCard
	}
}
