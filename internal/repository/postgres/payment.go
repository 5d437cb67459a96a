package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/lodgepoint/lodgepoint/internal/domain/payment"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/postgres"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a payment repository backed by postgres.
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

const paymentColumns = `id, booking_id, amount, currency, payment_method, provider,
	provider_payment_id, checkout_url, status, paid_at, failed_at, failure_reason,
	transaction_id, description, metadata, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		p.ID, p.BookingID, p.Amount, p.Currency, p.PaymentMethod, p.Provider,
		p.ProviderPaymentID, p.CheckoutURL, p.Status, p.PaidAt, p.FailedAt,
		p.FailureReason, p.TransactionID, p.Description, p.Metadata,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return wrapDBError(err, "failed to create payment")
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	var p payment.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	err := r.db.Querier(ctx).GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment not found").
				WithHintf("Payment not found: %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "failed to get payment")
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments SET
			amount = $2, currency = $3, payment_method = $4, status = $5,
			provider_payment_id = $6, paid_at = $7, failed_at = $8,
			failure_reason = $9, transaction_id = $10, metadata = $11,
			updated_at = now()
		WHERE id = $1`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		p.ID, p.Amount, p.Currency, p.PaymentMethod, p.Status,
		p.ProviderPaymentID, p.PaidAt, p.FailedAt, p.FailureReason,
		p.TransactionID, p.Metadata,
	)
	if err != nil {
		return wrapDBError(err, "failed to update payment")
	}
	return requireRow(result, "payment", p.ID)
}

func (r *paymentRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*payment.Payment, error) {
	var p payment.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_payment_id = $1`

	err := r.db.Querier(ctx).GetContext(ctx, &p, query, providerPaymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment not found").
				WithHintf("Payment not found for provider id: %s", providerPaymentID).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "failed to get payment by provider id")
	}
	return &p, nil
}

func (r *paymentRepository) GetByBookingAndProviderID(ctx context.Context, bookingID, providerPaymentID string) (*payment.Payment, error) {
	var p payment.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE booking_id = $1 AND provider_payment_id = $2`

	err := r.db.Querier(ctx).GetContext(ctx, &p, query, bookingID, providerPaymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment not found").
				WithHintf("Payment not found for booking %s and provider id %s", bookingID, providerPaymentID).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "failed to get payment by booking and provider id")
	}
	return &p, nil
}

func (r *paymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE booking_id = $1 ORDER BY created_at DESC`

	err := r.db.Querier(ctx).SelectContext(ctx, &payments, query, bookingID)
	if err != nil {
		return nil, wrapDBError(err, "failed to list payments for booking")
	}
	return payments, nil
}
