package paymongo

import (
	"encoding/json"
	"fmt"
	"testing"

	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeJSON(t *testing.T, eventID, eventType, resourceID string, attributes string) []byte {
	t.Helper()
	raw := fmt.Sprintf(`{
		"data": {
			"id": %q,
			"type": "event",
			"attributes": {
				"type": %q,
				"livemode": false,
				"data": {
					"id": %q,
					"type": "resource",
					"attributes": %s
				}
			}
		}
	}`, eventID, eventType, resourceID, attributes)
	require.True(t, json.Valid([]byte(raw)))
	return []byte(raw)
}

const sessionAttributes = `{
	"line_items": [
		{"name": "Deluxe Room x 2 nights", "currency": "PHP", "amount": 1724800, "quantity": 1}
	],
	"success_url": "https://example.com/success",
	"cancel_url": "https://example.com/cancel",
	"metadata": {"booking_id": "book_01", "booking_number": "BK-X4QZ81A"},
	"payment_intent": {
		"id": "pi_abc",
		"type": "payment_intent",
		"attributes": {"amount": 1724800, "currency": "PHP", "status": "succeeded"}
	}
}`

const intentAttributes = `{
	"amount": 500000,
	"currency": "PHP",
	"status": "succeeded",
	"source": {"id": "src_1", "type": "gcash"}
}`

func TestParseEvent_CheckoutSessionPaid(t *testing.T) {
	raw := envelopeJSON(t, "evt_1", "checkout_session.payment.paid", "cs_123", sessionAttributes)

	event, err := ParseEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "checkout_session.payment.paid", event.Type)
	assert.Equal(t, "cs_123", event.ResourceID)
	assert.Equal(t, EventKindCheckoutSessionSettled, event.Kind)
	require.NotNil(t, event.CheckoutSession)
	assert.Nil(t, event.PaymentIntent)

	assert.Equal(t, "book_01", event.CheckoutSession.MetadataValue("booking_id"))
	assert.Equal(t, "17248", event.CheckoutSession.LineItemTotal().String())
	assert.Equal(t, "PHP", event.CheckoutSession.Currency())

	rep := event.CheckoutSession.RepresentativePayment()
	require.NotNil(t, rep)
	assert.Equal(t, "pi_abc", rep.ID)
}

func TestParseEvent_CheckoutSessionFailed(t *testing.T) {
	raw := envelopeJSON(t, "evt_2", "checkout_session.payment.failed", "cs_124", sessionAttributes)

	event, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, EventKindCheckoutSessionFailed, event.Kind)
	require.NotNil(t, event.CheckoutSession)
}

func TestParseEvent_PaymentIntentFamily(t *testing.T) {
	for _, eventType := range []string{
		"payment_intent.succeeded",
		"payment_intent.payment.paid",
	} {
		raw := envelopeJSON(t, "evt_3", eventType, "pi_456", intentAttributes)

		event, err := ParseEvent(raw)
		require.NoError(t, err, eventType)
		assert.Equal(t, EventKindPaymentIntentSettled, event.Kind)
		require.NotNil(t, event.PaymentIntent)
		assert.Nil(t, event.CheckoutSession)
		assert.Equal(t, int64(500000), event.PaymentIntent.Amount)
	}
}

func TestParseEvent_UnhandledEventTypes(t *testing.T) {
	t.Run("unknown family", func(t *testing.T) {
		raw := envelopeJSON(t, "evt_4", "payment.refunded", "pay_1", `{"amount": 100}`)

		event, err := ParseEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, EventKindUnhandled, event.Kind)
		assert.Nil(t, event.CheckoutSession)
		assert.Nil(t, event.PaymentIntent)
	})

	t.Run("checkout session family but unknown operation", func(t *testing.T) {
		raw := envelopeJSON(t, "evt_5", "checkout_session.expired", "cs_125", sessionAttributes)

		event, err := ParseEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, EventKindUnhandled, event.Kind)
		assert.Nil(t, event.CheckoutSession)
	})
}

func TestParseEvent_StructuralValidation(t *testing.T) {
	cases := map[string][]byte{
		"not json":          []byte(`{{{`),
		"missing event id":  envelopeJSON(t, "", "checkout_session.payment.paid", "cs_1", sessionAttributes),
		"missing type":      envelopeJSON(t, "evt_1", "", "cs_1", sessionAttributes),
		"missing resource":  envelopeJSON(t, "evt_1", "checkout_session.payment.paid", "", sessionAttributes),
		"empty object":      []byte(`{}`),
	}
	for name, raw := range cases {
		event, err := ParseEvent(raw)
		require.Error(t, err, name)
		assert.True(t, ierr.IsValidation(err), name)
		assert.Nil(t, event, name)
	}
}

func TestParseEvent_ShapeSniffing(t *testing.T) {
	t.Run("paid event with payment shaped payload rejected", func(t *testing.T) {
		// The event family says checkout session but the inner payload is a
		// payment; the mismatch must not settle against garbage.
		raw := envelopeJSON(t, "evt_6", "checkout_session.payment.paid", "cs_1", intentAttributes)

		_, err := ParseEvent(raw)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("intent event with session shaped payload rejected", func(t *testing.T) {
		raw := envelopeJSON(t, "evt_7", "payment_intent.succeeded", "pi_1", sessionAttributes)

		_, err := ParseEvent(raw)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("missing inner attributes rejected for handled kinds", func(t *testing.T) {
		raw := envelopeJSON(t, "evt_8", "checkout_session.payment.paid", "cs_1", `null`)

		_, err := ParseEvent(raw)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})
}

func TestPaymentMethodMapping(t *testing.T) {
	cases := []struct {
		sourceType string
		expected   string
	}{
		{"gcash", "GCASH"},
		{"GCash", "GCASH"},
		{"paymaya", "PAYMAYA"},
		{"maya", "PAYMAYA"},
		{"grab_pay", "GRAB_PAY"},
		{"grabpay", "GRAB_PAY"},
		{"card", "CREDIT_CARD"},
		{"something_new", "CREDIT_CARD"},
	}
	for _, tc := range cases {
		method := PaymentMethodFromSource(&Source{Type: tc.sourceType})
		assert.Equal(t, tc.expected, method.String(), tc.sourceType)
	}

	assert.Equal(t, "CREDIT_CARD", PaymentMethodFromSource(nil).String())
}

func TestCheckoutSessionHelpers(t *testing.T) {
	t.Run("line item total sums amount times quantity", func(t *testing.T) {
		session := &CheckoutSession{
			LineItems: []LineItem{
				{Currency: "php", Amount: 300000, Quantity: 2},
				{Currency: "php", Amount: 150050, Quantity: 1},
			},
		}
		assert.Equal(t, "7500.5", session.LineItemTotal().String())
		assert.Equal(t, "PHP", session.Currency())
	})

	t.Run("currency defaults to PHP", func(t *testing.T) {
		session := &CheckoutSession{}
		assert.Equal(t, "PHP", session.Currency())
		assert.True(t, session.LineItemTotal().IsZero())
	})

	t.Run("representative payment falls back to payments array", func(t *testing.T) {
		session := &CheckoutSession{
			Payments: []PaymentResource{{ID: "pay_1"}, {ID: "pay_2"}},
		}
		rep := session.RepresentativePayment()
		require.NotNil(t, rep)
		assert.Equal(t, "pay_1", rep.ID)

		assert.Nil(t, (&CheckoutSession{}).RepresentativePayment())
	})
}
