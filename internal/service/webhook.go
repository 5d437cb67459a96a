package service

import (
	"context"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/types"
)

const (
	webhookCacheKeyPrefix = "webhook:event:"
	webhookCacheTTL       = 24 * time.Hour
)

// ProcessResult reports the outcome of one webhook delivery.
type ProcessResult struct {
	// Processed is true when the event caused (or previously caused) a
	// completed reconciliation.
	Processed bool
	// Duplicate is true when the event id had already been finalized and
	// this delivery short-circuited without side effects.
	Duplicate bool
}

// WebhookService runs a verified, parsed event through the idempotency
// ledger and hands it to reconciliation. A returned error means the ledger
// could not even be consulted and the provider should retry the delivery;
// every other outcome is expressed through ProcessResult.
type WebhookService interface {
	ProcessEvent(ctx context.Context, raw []byte, event *paymongo.Event) (*ProcessResult, error)
}

type webhookService struct {
	ServiceParams
	reconciliation ReconciliationService
}

// NewWebhookService creates a webhook service.
func NewWebhookService(params ServiceParams, reconciliation ReconciliationService) WebhookService {
	return &webhookService{ServiceParams: params, reconciliation: reconciliation}
}

func (s *webhookService) ProcessEvent(ctx context.Context, raw []byte, event *paymongo.Event) (*ProcessResult, error) {
	cacheKey := webhookCacheKeyPrefix + event.ID
	if _, found := s.Cache.Get(ctx, cacheKey); found {
		s.Logger.Debugw("duplicate webhook delivery served from cache", "event_id", event.ID)
		return &ProcessResult{Processed: true, Duplicate: true}, nil
	}

	record, result, err := s.claimEvent(ctx, raw, event)
	if err != nil {
		return nil, err
	}
	if result != nil {
		if result.Processed {
			s.Cache.Set(ctx, cacheKey, true, webhookCacheTTL)
		}
		return result, nil
	}

	if event.Kind == paymongo.EventKindUnhandled {
		s.finalize(record.ID, event.ID, s.WebhookEventRepo.MarkIgnored)
		s.Logger.Infow("unhandled webhook event type",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return &ProcessResult{Processed: false}, nil
	}

	if err := s.reconcile(ctx, event, record.ID); err != nil {
		s.Logger.Errorw("webhook reconciliation failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
		failErr := err
		s.finalize(record.ID, event.ID, func(ctx context.Context, id string) error {
			return s.WebhookEventRepo.MarkFailed(ctx, id, failErr.Error())
		})
		return &ProcessResult{Processed: false}, nil
	}

	s.finalize(record.ID, event.ID, s.WebhookEventRepo.MarkProcessed)
	s.Cache.Set(ctx, cacheKey, true, webhookCacheTTL)
	return &ProcessResult{Processed: true}, nil
}

// claimEvent inserts or finds the ledger record for the event id. It
// returns a non-nil result when the delivery short-circuits as a
// duplicate, and a non-nil error only when the ledger itself could not be
// reached.
func (s *webhookService) claimEvent(ctx context.Context, raw []byte, event *paymongo.Event) (*webhookevent.WebhookEvent, *ProcessResult, error) {
	existing, err := s.WebhookEventRepo.GetByEventID(ctx, event.ID)
	if err == nil {
		if existing.Processed {
			s.Logger.Infow("duplicate webhook delivery, already processed", "event_id", event.ID)
			return nil, &ProcessResult{Processed: true, Duplicate: true}, nil
		}
		// A prior attempt failed or was interrupted; run it again.
		return existing, nil, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, nil, err
	}

	record := &webhookevent.WebhookEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventID:    event.ID,
		EventType:  event.Type,
		ResourceID: event.ResourceID,
		Processed:  false,
		RawPayload: raw,
		BaseModel:  types.GetDefaultBaseModel(),
	}
	err = s.WebhookEventRepo.Create(ctx, record)
	if err == nil {
		return record, nil, nil
	}
	if !ierr.IsAlreadyExists(err) {
		return nil, nil, err
	}

	// A concurrent delivery claimed the event id first. Defer to its
	// outcome: short-circuit if it finished, otherwise take over its
	// record.
	existing, getErr := s.WebhookEventRepo.GetByEventID(ctx, event.ID)
	if getErr != nil {
		return nil, nil, getErr
	}
	if existing.Processed {
		s.Logger.Infow("duplicate webhook delivery, concurrent claim won", "event_id", event.ID)
		return nil, &ProcessResult{Processed: true, Duplicate: true}, nil
	}
	return existing, nil, nil
}

func (s *webhookService) reconcile(ctx context.Context, event *paymongo.Event, recordID string) error {
	switch event.Kind {
	case paymongo.EventKindCheckoutSessionSettled:
		return s.reconciliation.SettleCheckoutSession(ctx, event, recordID)
	case paymongo.EventKindCheckoutSessionFailed:
		return s.reconciliation.FailCheckoutSession(ctx, event)
	case paymongo.EventKindPaymentIntentSettled:
		return s.reconciliation.SettlePaymentIntent(ctx, event, recordID)
	default:
		return ierr.NewError("no reconciliation for event kind").
			WithHint("Event kind is not reconcilable").
			Mark(ierr.ErrInvalidOperation)
	}
}

// finalize writes the ledger outcome. The reconciliation result already
// stands at this point, so a failure here is logged rather than surfaced;
// the worst case is one redundant reprocessing attempt on redelivery.
func (s *webhookService) finalize(recordID, eventID string, mark func(ctx context.Context, id string) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := mark(ctx, recordID); err != nil {
		s.Logger.Errorw("failed to finalize webhook ledger record",
			"event_id", eventID,
			"record_id", recordID,
			"error", err,
		)
	}
}
