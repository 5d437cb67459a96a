package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/postgres"
)

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewWebhookEventRepository creates a webhook event repository backed by
// postgres.
func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

const webhookEventColumns = `id, event_id, event_type, resource_id, processed,
	processing_error, raw_payload, processed_at, created_at, updated_at`

// Create claims the event id. The unique index on event_id turns a
// concurrent duplicate delivery into ErrAlreadyExists for exactly one of
// the two writers.
func (r *webhookEventRepository) Create(ctx context.Context, e *webhookevent.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (` + webhookEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		e.ID, e.EventID, e.EventType, e.ResourceID, e.Processed,
		e.ProcessingError, []byte(e.RawPayload), e.ProcessedAt,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return wrapDBError(err, "failed to create webhook event")
	}
	return nil
}

func (r *webhookEventRepository) Get(ctx context.Context, id string) (*webhookevent.WebhookEvent, error) {
	var e webhookevent.WebhookEvent
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE id = $1`

	err := r.db.Querier(ctx).GetContext(ctx, &e, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("webhook event not found").
				WithHintf("Webhook event not found: %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "failed to get webhook event")
	}
	return &e, nil
}

func (r *webhookEventRepository) GetByEventID(ctx context.Context, eventID string) (*webhookevent.WebhookEvent, error) {
	var e webhookevent.WebhookEvent
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE event_id = $1`

	err := r.db.Querier(ctx).GetContext(ctx, &e, query, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("webhook event not found").
				WithHintf("Webhook event not found for provider event id: %s", eventID).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "failed to get webhook event by event id")
	}
	return &e, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_events SET
			processed = true, processing_error = NULL,
			processed_at = now(), updated_at = now()
		WHERE id = $1`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return wrapDBError(err, "failed to mark webhook event processed")
	}
	return requireRow(result, "webhook event", id)
}

func (r *webhookEventRepository) MarkFailed(ctx context.Context, id string, processingError string) error {
	query := `
		UPDATE webhook_events SET
			processed = false, processing_error = $2,
			processed_at = now(), updated_at = now()
		WHERE id = $1`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, id, processingError)
	if err != nil {
		return wrapDBError(err, "failed to mark webhook event failed")
	}
	return requireRow(result, "webhook event", id)
}

func (r *webhookEventRepository) MarkIgnored(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_events SET
			processed = false, processing_error = NULL,
			processed_at = now(), updated_at = now()
		WHERE id = $1`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return wrapDBError(err, "failed to mark webhook event ignored")
	}
	return requireRow(result, "webhook event", id)
}

func (r *webhookEventRepository) ListByResourceIDs(ctx context.Context, resourceIDs []string) ([]*webhookevent.WebhookEvent, error) {
	if len(resourceIDs) == 0 {
		return nil, nil
	}

	var events []*webhookevent.WebhookEvent
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events
		WHERE resource_id = ANY($1) ORDER BY created_at DESC`

	err := r.db.Querier(ctx).SelectContext(ctx, &events, query, pq.Array(resourceIDs))
	if err != nil {
		return nil, wrapDBError(err, "failed to list webhook events by resource ids")
	}
	return events, nil
}
