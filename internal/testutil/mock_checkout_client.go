package testutil

import (
	"context"
	"sync"

	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
)

// MockCheckoutClient is a fake provider API for testing. It records every
// request and returns either the configured response or a canned session.
type MockCheckoutClient struct {
	mu       sync.Mutex
	Requests []*paymongo.CreateCheckoutSessionRequest

	NextSessionID string
	NextURL       string
	Err           error
}

// NewMockCheckoutClient creates a mock checkout client
func NewMockCheckoutClient() *MockCheckoutClient {
	return &MockCheckoutClient{
		NextSessionID: "cs_test_session",
		NextURL:       "https://checkout.example.com/cs_test_session",
	}
}

func (m *MockCheckoutClient) CreateCheckoutSession(ctx context.Context, req *paymongo.CreateCheckoutSessionRequest) (*paymongo.CheckoutSessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}

	return &paymongo.CheckoutSessionResult{
		ID: m.NextSessionID,
		Attributes: paymongo.CheckoutSession{
			CheckoutURL: m.NextURL,
			Status:      "active",
			LineItems:   req.LineItems,
			Metadata:    req.Metadata,
			SuccessURL:  req.SuccessURL,
			CancelURL:   req.CancelURL,
		},
	}, nil
}

// FailWith makes subsequent calls return a provider error.
func (m *MockCheckoutClient) FailWith(detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = ierr.NewError(detail).
		WithHint("Payment provider rejected the request").
		Mark(ierr.ErrHTTPClient)
}
