package webhookevent

import "context"

// Repository defines the interface for webhook event persistence.
type Repository interface {
	// Create inserts the ledger record. The storage layer enforces a
	// unique constraint on EventID and returns ErrAlreadyExists on a
	// duplicate, so two concurrent deliveries cannot both claim an event.
	Create(ctx context.Context, event *WebhookEvent) error

	Get(ctx context.Context, id string) (*WebhookEvent, error)
	GetByEventID(ctx context.Context, eventID string) (*WebhookEvent, error)

	// MarkProcessed finalizes the record as successfully handled.
	MarkProcessed(ctx context.Context, id string) error

	// MarkFailed records the processing error while leaving the record
	// reprocessable on a later delivery.
	MarkFailed(ctx context.Context, id string, processingError string) error

	// MarkIgnored finalizes a record for an event family the system does
	// not act on: not processed, but not an error either.
	MarkIgnored(ctx context.Context, id string) error

	// ListByResourceIDs returns events concerning any of the given
	// provider resource ids, newest first.
	ListByResourceIDs(ctx context.Context, resourceIDs []string) ([]*WebhookEvent, error)
}
