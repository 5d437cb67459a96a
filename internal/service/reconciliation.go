package service

import (
	"context"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/types"
)

const (
	metadataBookingIDKey      = "booking_id"
	metadataWebhookEventIDKey = "webhook_event_id"
	metadataProcessedAtKey    = "processed_at"
)

// ReconciliationService applies a classified provider event to the booking
// ledger. Each method is safe to run again for the same event: a payment
// that already reached a terminal status is never settled or failed twice.
// Settlement flows receive the id of the webhook ledger record that carried
// the event and stamp it into the payment's metadata, so every settled
// payment can be traced back to the delivery that settled it.
type ReconciliationService interface {
	SettleCheckoutSession(ctx context.Context, event *paymongo.Event, webhookEventID string) error
	FailCheckoutSession(ctx context.Context, event *paymongo.Event) error
	SettlePaymentIntent(ctx context.Context, event *paymongo.Event, webhookEventID string) error
}

type reconciliationService struct {
	ServiceParams
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(params ServiceParams) ReconciliationService {
	return &reconciliationService{ServiceParams: params}
}

func (s *reconciliationService) SettleCheckoutSession(ctx context.Context, event *paymongo.Event, webhookEventID string) error {
	session := event.CheckoutSession

	bookingID := session.MetadataValue(metadataBookingIDKey)
	if bookingID == "" {
		return ierr.NewError("checkout session has no booking reference").
			WithHint("Checkout session metadata is missing booking_id").
			WithReportableDetails(map[string]any{
				"event_id":   event.ID,
				"session_id": event.ResourceID,
			}).
			Mark(ierr.ErrValidation)
	}

	b, err := s.BookingRepo.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	amount := session.LineItemTotal()
	if !amount.IsPositive() {
		return ierr.NewError("checkout session has no chargeable line items").
			WithHint("Settlement amount must be greater than 0").
			WithReportableDetails(map[string]any{
				"session_id": event.ResourceID,
			}).
			Mark(ierr.ErrValidation)
	}

	// Correlate on the payment-intent id when the provider included one,
	// otherwise on the session id itself.
	providerID := event.ResourceID
	var source *paymongo.Source
	var transactionID string
	if rep := session.RepresentativePayment(); rep != nil {
		providerID = rep.ID
		transactionID = rep.ID
		source = rep.Attributes.SourceDetails()
	}
	method := paymongo.PaymentMethodFromSource(source)

	p, err := s.findPayment(ctx, b.ID, providerID, event.ResourceID)
	if err != nil {
		return err
	}
	if p != nil && p.Status == types.PaymentStatusPaid {
		s.Logger.Infow("payment already settled, skipping",
			"event_id", event.ID,
			"payment_id", p.ID,
			"booking_id", b.ID,
		)
		return nil
	}

	now := time.Now().UTC()
	settlementStamp := types.Metadata{
		metadataWebhookEventIDKey: webhookEventID,
		metadataProcessedAtKey:    now.Format(time.RFC3339),
	}
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		if p == nil {
			p = &payment.Payment{
				ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
				BookingID:         b.ID,
				Amount:            amount,
				Currency:          session.Currency(),
				PaymentMethod:     method,
				Provider:          types.PaymentProviderPayMongo,
				ProviderPaymentID: providerID,
				Status:            types.PaymentStatusPaid,
				PaidAt:            &now,
				TransactionID:     types.ToNillableString(transactionID),
				Description:       "Booking payment via PayMongo checkout",
				Metadata:          types.Metadata{metadataBookingIDKey: b.ID}.Merge(settlementStamp),
				BaseModel:         types.GetDefaultBaseModel(),
			}
			if err := s.PaymentRepo.Create(ctx, p); err != nil {
				return err
			}
		} else {
			p.Amount = amount
			p.Currency = session.Currency()
			p.PaymentMethod = method
			p.Status = types.PaymentStatusPaid
			p.PaidAt = &now
			p.Metadata = p.Metadata.Merge(settlementStamp)
			if transactionID != "" {
				p.TransactionID = &transactionID
			}
			if err := s.PaymentRepo.Update(ctx, p); err != nil {
				return err
			}
		}

		updated, err := s.BookingRepo.ApplySettlement(ctx, b.ID, amount)
		if err != nil {
			return err
		}

		s.Logger.Infow("checkout session settled",
			"event_id", event.ID,
			"booking_id", b.ID,
			"payment_id", p.ID,
			"amount", amount.String(),
			"amount_due", updated.AmountDue.String(),
			"payment_status", updated.PaymentStatus,
		)
		return nil
	})
}

func (s *reconciliationService) FailCheckoutSession(ctx context.Context, event *paymongo.Event) error {
	session := event.CheckoutSession

	bookingID := session.MetadataValue(metadataBookingIDKey)
	if bookingID == "" {
		return ierr.NewError("checkout session has no booking reference").
			WithHint("Checkout session metadata is missing booking_id").
			WithReportableDetails(map[string]any{
				"event_id":   event.ID,
				"session_id": event.ResourceID,
			}).
			Mark(ierr.ErrValidation)
	}

	b, err := s.BookingRepo.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	providerID := event.ResourceID
	reason := "Payment failed"
	var transactionID string
	if rep := session.RepresentativePayment(); rep != nil {
		providerID = rep.ID
		transactionID = rep.ID
		if detail := rep.Attributes.LastErrorDetail(); detail != "" {
			reason = detail
		}
	}

	p, err := s.findPayment(ctx, b.ID, providerID, event.ResourceID)
	if err != nil {
		return err
	}
	if p != nil && p.Status.IsTerminal() {
		s.Logger.Infow("payment already finalized, skipping failure",
			"event_id", event.ID,
			"payment_id", p.ID,
			"status", p.Status,
		)
		return nil
	}

	amount := session.LineItemTotal()
	now := time.Now().UTC()
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		switch {
		case p != nil:
			p.Status = types.PaymentStatusFailed
			p.FailedAt = &now
			p.FailureReason = &reason
			if transactionID != "" {
				p.TransactionID = &transactionID
			}
			if err := s.PaymentRepo.Update(ctx, p); err != nil {
				return err
			}
		case amount.IsPositive():
			p = &payment.Payment{
				ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
				BookingID:         b.ID,
				Amount:            amount,
				Currency:          session.Currency(),
				PaymentMethod:     types.PaymentMethodCreditCard,
				Provider:          types.PaymentProviderPayMongo,
				ProviderPaymentID: providerID,
				Status:            types.PaymentStatusFailed,
				FailedAt:          &now,
				FailureReason:     &reason,
				TransactionID:     types.ToNillableString(transactionID),
				Description:       "Booking payment via PayMongo checkout",
				Metadata:          types.Metadata{metadataBookingIDKey: b.ID},
				BaseModel:         types.GetDefaultBaseModel(),
			}
			if err := s.PaymentRepo.Create(ctx, p); err != nil {
				return err
			}
		default:
			// No payment record and nothing chargeable on the session;
			// only the booking state is at stake.
			s.Logger.Warnw("failed session carries no payment to record",
				"event_id", event.ID,
				"session_id", event.ResourceID,
			)
		}

		cancelled, err := s.BookingRepo.CancelIfUnpaid(ctx, b.ID)
		if err != nil {
			return err
		}
		if !cancelled {
			s.Logger.Infow("booking holds settled funds, leaving status unchanged",
				"event_id", event.ID,
				"booking_id", b.ID,
			)
		}

		s.Logger.Infow("checkout session failed",
			"event_id", event.ID,
			"booking_id", b.ID,
			"reason", reason,
			"booking_cancelled", cancelled,
		)
		return nil
	})
}

func (s *reconciliationService) SettlePaymentIntent(ctx context.Context, event *paymongo.Event, webhookEventID string) error {
	attrs := event.PaymentIntent

	// Intent events carry no booking metadata; the intent id must match a
	// payment created earlier by the checkout flow.
	p, err := s.PaymentRepo.GetByProviderPaymentID(ctx, event.ResourceID)
	if err != nil {
		return err
	}
	if p.Status == types.PaymentStatusPaid {
		s.Logger.Infow("payment already settled, skipping",
			"event_id", event.ID,
			"payment_id", p.ID,
		)
		return nil
	}

	// The payment's recorded amount is authoritative here; the intent event
	// restates a figure but the money owed was fixed at checkout time.
	amount := p.Amount
	method := paymongo.PaymentMethodFromSource(attrs.SourceDetails())

	now := time.Now().UTC()
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		p.PaymentMethod = method
		p.Status = types.PaymentStatusPaid
		p.PaidAt = &now
		p.Metadata = p.Metadata.Merge(types.Metadata{
			metadataWebhookEventIDKey: webhookEventID,
			metadataProcessedAtKey:    now.Format(time.RFC3339),
		})
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return err
		}

		updated, err := s.BookingRepo.ApplySettlement(ctx, p.BookingID, amount)
		if err != nil {
			return err
		}

		s.Logger.Infow("payment intent settled",
			"event_id", event.ID,
			"booking_id", p.BookingID,
			"payment_id", p.ID,
			"amount", amount.String(),
			"amount_due", updated.AmountDue.String(),
		)
		return nil
	})
}

// findPayment looks up the payment for a settlement, first under the
// resolved provider id, then under the session id the checkout flow
// recorded before any intent existed. A missing payment returns nil.
func (s *reconciliationService) findPayment(ctx context.Context, bookingID, providerID, sessionID string) (*payment.Payment, error) {
	p, err := s.PaymentRepo.GetByBookingAndProviderID(ctx, bookingID, providerID)
	if err == nil {
		return p, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	if sessionID != "" && sessionID != providerID {
		p, err = s.PaymentRepo.GetByBookingAndProviderID(ctx, bookingID, sessionID)
		if err == nil {
			// The checkout flow keyed the pending record on the session id;
			// rebind it to the intent id now that one exists.
			p.ProviderPaymentID = providerID
			return p, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, nil
}
