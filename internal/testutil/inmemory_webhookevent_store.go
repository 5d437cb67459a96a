package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/lodgepoint/lodgepoint/internal/domain/webhookevent"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/samber/lo"
)

// InMemoryWebhookEventStore implements webhookevent.Repository
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.WebhookEvent]
	mu sync.Mutex
}

// NewInMemoryWebhookEventStore creates a new in-memory webhook event
// repository
func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.WebhookEvent](),
	}
}

// Create enforces the unique constraint on EventID so concurrency tests
// observe the same claim semantics as the postgres table.
func (m *InMemoryWebhookEventStore) Create(ctx context.Context, e *webhookevent.WebhookEvent) error {
	if e == nil || e.ID == "" || e.EventID == "" {
		return ierr.NewError("webhook event ID cannot be empty").
			WithHint("Webhook event ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.InMemoryStore.List(ctx, func(_ context.Context, item *webhookevent.WebhookEvent) bool {
		return item.EventID == e.EventID
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("webhook event already exists").
			WithHintf("Webhook event already exists for provider event id: %s", e.EventID).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := m.InMemoryStore.Create(ctx, e.ID, copyWebhookEvent(e)); err != nil {
		return ierr.WithError(err).
			WithHint("Webhook event already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (m *InMemoryWebhookEventStore) Get(ctx context.Context, id string) (*webhookevent.WebhookEvent, error) {
	e, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("webhook event not found").
			WithHintf("Webhook event not found: %s", id).
			Mark(ierr.ErrNotFound)
	}
	return copyWebhookEvent(e), nil
}

func (m *InMemoryWebhookEventStore) GetByEventID(ctx context.Context, eventID string) (*webhookevent.WebhookEvent, error) {
	matches := m.InMemoryStore.List(ctx, func(_ context.Context, item *webhookevent.WebhookEvent) bool {
		return item.EventID == eventID
	}, nil)
	if len(matches) == 0 {
		return nil, ierr.NewError("webhook event not found").
			WithHintf("Webhook event not found for provider event id: %s", eventID).
			Mark(ierr.ErrNotFound)
	}
	return copyWebhookEvent(matches[0]), nil
}

func (m *InMemoryWebhookEventStore) MarkProcessed(ctx context.Context, id string) error {
	return m.finalize(ctx, id, func(e *webhookevent.WebhookEvent) {
		e.Processed = true
		e.ProcessingError = nil
	})
}

func (m *InMemoryWebhookEventStore) MarkFailed(ctx context.Context, id string, processingError string) error {
	return m.finalize(ctx, id, func(e *webhookevent.WebhookEvent) {
		e.Processed = false
		e.ProcessingError = &processingError
	})
}

func (m *InMemoryWebhookEventStore) MarkIgnored(ctx context.Context, id string) error {
	return m.finalize(ctx, id, func(e *webhookevent.WebhookEvent) {
		e.Processed = false
		e.ProcessingError = nil
	})
}

func (m *InMemoryWebhookEventStore) finalize(ctx context.Context, id string, mutate func(e *webhookevent.WebhookEvent)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return ierr.NewError("webhook event not found").
			WithHintf("Webhook event not found: %s", id).
			Mark(ierr.ErrNotFound)
	}

	updated := copyWebhookEvent(e)
	mutate(updated)
	now := time.Now().UTC()
	updated.ProcessedAt = &now
	updated.UpdatedAt = now
	return m.InMemoryStore.Update(ctx, id, updated)
}

func (m *InMemoryWebhookEventStore) ListByResourceIDs(ctx context.Context, resourceIDs []string) ([]*webhookevent.WebhookEvent, error) {
	if len(resourceIDs) == 0 {
		return nil, nil
	}

	matches := m.InMemoryStore.List(ctx, func(_ context.Context, item *webhookevent.WebhookEvent) bool {
		return lo.Contains(resourceIDs, item.ResourceID)
	}, func(i, j *webhookevent.WebhookEvent) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})

	result := make([]*webhookevent.WebhookEvent, 0, len(matches))
	for _, e := range matches {
		result = append(result, copyWebhookEvent(e))
	}
	return result, nil
}

func copyWebhookEvent(e *webhookevent.WebhookEvent) *webhookevent.WebhookEvent {
	dup := *e
	return &dup
}
