package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/lodgepoint/lodgepoint/internal/domain/booking"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/postgres"
	"github.com/lodgepoint/lodgepoint/internal/types"
	"github.com/shopspring/decimal"
)

type bookingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewBookingRepository creates a booking repository backed by postgres.
func NewBookingRepository(db *postgres.DB, logger *logger.Logger) booking.Repository {
	return &bookingRepository{db: db, logger: logger}
}

const bookingColumns = `id, booking_number, property_id, room_id, guest_name, guest_email,
	total_amount, amount_paid, amount_due, payment_status, status, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		b.ID, b.BookingNumber, b.PropertyID, b.RoomID, b.GuestName, b.GuestEmail,
		b.TotalAmount, b.AmountPaid, b.AmountDue, b.PaymentStatus, b.Status,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return wrapDBError(err, "failed to create booking")
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id string) (*booking.Booking, error) {
	var b booking.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.Querier(ctx).GetContext(ctx, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("booking not found").
				WithHintf("Booking not found: %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "failed to get booking")
	}
	return &b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	query := `
		UPDATE bookings SET
			guest_name = $2, guest_email = $3, total_amount = $4,
			amount_paid = $5, amount_due = $6, payment_status = $7,
			status = $8, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		b.ID, b.GuestName, b.GuestEmail, b.TotalAmount,
		b.AmountPaid, b.AmountDue, b.PaymentStatus, b.Status,
	)
	if err != nil {
		return wrapDBError(err, "failed to update booking")
	}
	return requireRow(result, "booking", b.ID)
}

// ApplySettlement is the single write of the settlement path. The paid
// total is incremented in place and the derived fields are computed from
// the incremented value inside the statement, so concurrent settlements on
// the same booking serialize at the row and neither can base its result on
// a stale read.
func (r *bookingRepository) ApplySettlement(ctx context.Context, id string, amount decimal.Decimal) (*booking.Booking, error) {
	var b booking.Booking
	query := `
		UPDATE bookings SET
			amount_paid = amount_paid + $2,
			amount_due = total_amount - (amount_paid + $2),
			payment_status = CASE
				WHEN total_amount - (amount_paid + $2) <= 0 THEN $3
				ELSE $4
			END,
			status = CASE
				WHEN total_amount - (amount_paid + $2) <= 0 THEN $5
				ELSE $6
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingColumns

	err := r.db.Querier(ctx).GetContext(ctx, &b, query, id, amount,
		types.BookingPaymentStatusPaid, types.BookingPaymentStatusPartial,
		types.BookingStatusConfirmed, types.BookingStatusPending,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("booking not found").
				WithHintf("Booking not found: %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "failed to apply settlement")
	}
	return &b, nil
}

// CancelIfUnpaid cancels the booking on payment failure, guarded in SQL so
// a booking that already holds settled money is never voided.
func (r *bookingRepository) CancelIfUnpaid(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE bookings SET
			payment_status = $2,
			status = $3,
			updated_at = now()
		WHERE id = $1 AND amount_paid <= 0`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		id, types.BookingPaymentStatusFailed, types.BookingStatusCancelled,
	)
	if err != nil {
		return false, wrapDBError(err, "failed to cancel booking")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, wrapDBError(err, "failed to cancel booking")
	}
	return rows > 0, nil
}

// wrapDBError maps storage errors onto the application error taxonomy.
func wrapDBError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ierr.WithError(err).
			WithMessage(msg).
			Mark(ierr.ErrAlreadyExists)
	}
	return ierr.WithError(err).
		WithMessage(msg).
		Mark(ierr.ErrDatabase)
}

func requireRow(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBError(err, "failed to read affected rows")
	}
	if rows == 0 {
		return ierr.NewError(entity + " not found").
			WithHintf("%s not found: %s", entity, id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
