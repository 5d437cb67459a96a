package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/api/dto"
	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
)

// checkoutPaymentMethods is the method list offered on hosted checkout.
var checkoutPaymentMethods = []string{"card", "gcash", "paymaya", "grab_pay"}

var hundred = decimal.NewFromInt(100)

// PaymentService creates provider checkouts and settles payments collected
// outside the provider.
type PaymentService interface {
	CreateCheckout(ctx context.Context, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error)
	ConfirmManualPayment(ctx context.Context, req *dto.ConfirmManualPaymentRequest) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
}

type paymentService struct {
	ServiceParams
}

// NewPaymentService creates a payment service.
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

func (s *paymentService) CreateCheckout(ctx context.Context, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := s.BookingRepo.Get(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == types.BookingStatusCancelled {
		return nil, ierr.NewError("booking is cancelled").
			WithHint("Cannot collect payment for a cancelled booking").
			Mark(ierr.ErrInvalidOperation)
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = b.AmountDue
	}
	if !amount.IsPositive() {
		return nil, ierr.NewError("nothing to collect").
			WithHint("Booking has no outstanding balance").
			Mark(ierr.ErrInvalidOperation)
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Payment for booking %s", b.BookingNumber)
	}

	// Line item amounts are in minor currency units.
	session, err := s.CheckoutClient.CreateCheckoutSession(ctx, &paymongo.CreateCheckoutSessionRequest{
		Description: description,
		LineItems: []paymongo.LineItem{{
			Name:     description,
			Currency: "PHP",
			Amount:   amount.Mul(hundred).IntPart(),
			Quantity: 1,
		}},
		PaymentMethodTypes: checkoutPaymentMethods,
		SuccessURL:         s.Config.PayMongo.SuccessURL,
		CancelURL:          s.Config.PayMongo.CancelURL,
		Metadata: map[string]string{
			"booking_id":     b.ID,
			"booking_number": b.BookingNumber,
		},
		ShowDescription: true,
		ShowLineItems:   true,
		ReferenceNumber: b.BookingNumber,
	})
	if err != nil {
		return nil, err
	}

	// The session id keys the pending payment until a webhook carries the
	// payment-intent id for it.
	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		BookingID:         b.ID,
		Amount:            amount,
		Currency:          "PHP",
		PaymentMethod:     types.PaymentMethodCreditCard,
		Provider:          types.PaymentProviderPayMongo,
		ProviderPaymentID: session.ID,
		CheckoutURL:       types.ToNillableString(session.Attributes.CheckoutURL),
		Status:            types.PaymentStatusPending,
		Description:       description,
		Metadata: types.Metadata{
			"booking_id":     b.ID,
			"booking_number": b.BookingNumber,
		},
		BaseModel: types.GetDefaultBaseModel(),
	}
	if err := s.PaymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("checkout session created",
		"booking_id", b.ID,
		"payment_id", p.ID,
		"session_id", session.ID,
		"amount", amount.String(),
	)

	return &dto.CreateCheckoutResponse{
		PaymentID:   p.ID,
		SessionID:   session.ID,
		CheckoutURL: session.Attributes.CheckoutURL,
	}, nil
}

func (s *paymentService) ConfirmManualPayment(ctx context.Context, req *dto.ConfirmManualPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PaymentRepo.Get(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if p.Status.IsTerminal() {
		return nil, ierr.NewError("payment already finalized").
			WithHintf("Payment is already %s", p.Status).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		p.Status = types.PaymentStatusPaid
		p.PaidAt = &now
		if req.PaymentMethod != "" {
			p.PaymentMethod = req.PaymentMethod
		}
		if req.TransactionID != "" {
			p.TransactionID = &req.TransactionID
		}
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return err
		}

		_, err := s.BookingRepo.ApplySettlement(ctx, p.BookingID, p.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("manual payment confirmed",
		"payment_id", p.ID,
		"booking_id", p.BookingID,
		"amount", p.Amount.String(),
	)
	return &dto.PaymentResponse{Payment: p}, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.PaymentResponse{Payment: p}, nil
}
