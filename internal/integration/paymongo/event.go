package paymongo

import (
	"encoding/json"
	"strings"

	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
)

// Event type strings PayMongo delivers. Matching is against the
// provider's literal vocabulary.
const (
	EventTypeCheckoutPaid   = "checkout_session.payment.paid"
	EventTypeCheckoutFailed = "checkout_session.payment.failed"

	checkoutSessionPrefix = "checkout_session."
	paymentIntentPrefix   = "payment_intent."
)

// EventKind is the closed set of classifications an inbound event resolves
// to. Downstream code switches on the kind and never re-inspects payload
// shape.
type EventKind string

const (
	EventKindCheckoutSessionSettled EventKind = "checkout_session_settled"
	EventKindCheckoutSessionFailed  EventKind = "checkout_session_failed"
	EventKindPaymentIntentSettled   EventKind = "payment_intent_settled"
	EventKindUnhandled              EventKind = "unhandled"
)

// Event is the normalized form of one webhook delivery. Exactly one of
// CheckoutSession and PaymentIntent is set for the handled kinds; both are
// nil for EventKindUnhandled.
type Event struct {
	// ID is the provider-assigned event id, the idempotency key.
	ID         string
	Type       string
	ResourceID string
	LiveMode   bool
	Kind       EventKind

	CheckoutSession *CheckoutSession
	PaymentIntent   *PaymentAttributes
}

// envelope mirrors the provider's outer event shape:
// { data: { id, type, attributes: { type, data: { id, type, attributes } } } }
type envelope struct {
	Data struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Type     string `json:"type"`
			LiveMode bool   `json:"livemode"`
			Data     struct {
				ID         string          `json:"id"`
				Type       string          `json:"type"`
				Attributes json.RawMessage `json:"attributes"`
			} `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

// ParseEvent validates the raw delivery against the envelope shape and
// classifies it into an Event. Structural deviations are rejected here;
// unknown event families parse successfully as EventKindUnhandled.
func ParseEvent(raw []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid event structure").
			Mark(ierr.ErrValidation)
	}

	if env.Data.ID == "" || env.Data.Type == "" || env.Data.Attributes.Type == "" || env.Data.Attributes.Data.ID == "" {
		return nil, ierr.NewError("webhook envelope missing required fields").
			WithHint("Invalid event structure").
			WithReportableDetails(map[string]any{
				"event_id":   env.Data.ID,
				"event_type": env.Data.Attributes.Type,
			}).
			Mark(ierr.ErrValidation)
	}

	event := &Event{
		ID:         env.Data.ID,
		Type:       env.Data.Attributes.Type,
		ResourceID: env.Data.Attributes.Data.ID,
		LiveMode:   env.Data.Attributes.LiveMode,
		Kind:       EventKindUnhandled,
	}

	inner := env.Data.Attributes.Data.Attributes

	switch {
	case strings.HasPrefix(event.Type, checkoutSessionPrefix):
		switch event.Type {
		case EventTypeCheckoutPaid:
			event.Kind = EventKindCheckoutSessionSettled
		case EventTypeCheckoutFailed:
			event.Kind = EventKindCheckoutSessionFailed
		default:
			// Other checkout-session events (expired etc.) are accepted
			// but not acted on.
			return event, nil
		}

		session, err := parseCheckoutSession(inner)
		if err != nil {
			return nil, err
		}
		event.CheckoutSession = session

	case strings.HasPrefix(event.Type, paymentIntentPrefix):
		event.Kind = EventKindPaymentIntentSettled

		intent, err := parsePaymentAttributes(inner)
		if err != nil {
			return nil, err
		}
		event.PaymentIntent = intent
	}

	return event, nil
}

// The inner attributes payload is polymorphic and the outer envelope does
// not reliably disambiguate it, so classification is by structural shape:
// line_items plus success/cancel URLs marks a checkout session, amount
// plus currency plus status marks a payment or payment intent.

func parseCheckoutSession(raw json.RawMessage) (*CheckoutSession, error) {
	fields, err := payloadFields(raw)
	if err != nil {
		return nil, err
	}
	if !hasFields(fields, "line_items", "success_url", "cancel_url") {
		return nil, ierr.NewError("payload does not match checkout session shape").
			WithHint("Invalid checkout session data structure").
			Mark(ierr.ErrValidation)
	}

	var session CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid checkout session data structure").
			Mark(ierr.ErrValidation)
	}
	return &session, nil
}

func parsePaymentAttributes(raw json.RawMessage) (*PaymentAttributes, error) {
	fields, err := payloadFields(raw)
	if err != nil {
		return nil, err
	}
	if !hasFields(fields, "amount", "currency", "status") {
		return nil, ierr.NewError("payload does not match payment intent shape").
			WithHint("Invalid payment intent data structure").
			Mark(ierr.ErrValidation)
	}

	var attrs PaymentAttributes
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid payment intent data structure").
			Mark(ierr.ErrValidation)
	}
	return &attrs, nil
}

func payloadFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, ierr.NewError("missing resource attributes").
			WithHint("Invalid event structure").
			Mark(ierr.ErrValidation)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid event structure").
			Mark(ierr.ErrValidation)
	}
	return fields, nil
}

func hasFields(fields map[string]json.RawMessage, names ...string) bool {
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return false
		}
	}
	return true
}
