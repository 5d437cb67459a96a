package webhookevent

import (
	"encoding/json"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/types"
)

// WebhookEvent is the idempotency ledger: one row per provider event id.
// Once Processed is true the record is terminal and a redelivery of the
// same event id short-circuits before any side effect. A record with
// Processed false marks an attempt that failed or was interrupted;
// reconciliation may run again for it.
type WebhookEvent struct {
	ID string `json:"id" db:"id"`

	// EventID is the provider-assigned event id. Unique; the constraint is
	// what makes concurrent first deliveries of the same event safe.
	EventID string `json:"event_id" db:"event_id"`

	EventType  string `json:"event_type" db:"event_type"`
	ResourceID string `json:"resource_id" db:"resource_id"`

	Processed       bool    `json:"processed" db:"processed"`
	ProcessingError *string `json:"processing_error,omitempty" db:"processing_error"`

	// RawPayload keeps the exact delivered bytes for audit and replay.
	RawPayload json.RawMessage `json:"raw_payload" db:"raw_payload"`

	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`

	types.BaseModel
}

// TableName returns the table name for the webhook event
func (e *WebhookEvent) TableName() string {
	return "webhook_events"
}
