package paymongo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/lodgepoint/lodgepoint/internal/config"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/logger"
)

// Client talks to the PayMongo REST API. It is constructed with its
// credentials and passed to the components that need it; nothing in this
// package holds global state, so tests can substitute a fake through the
// service interfaces.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *retryablehttp.Client
	logger     *logger.Logger
}

// NewClient creates a PayMongo API client from configuration.
func NewClient(cfg *config.Configuration, log *logger.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.Logger = nil

	return &Client{
		baseURL:    cfg.PayMongo.APIBaseURL,
		secretKey:  cfg.PayMongo.SecretKey,
		httpClient: httpClient,
		logger:     log,
	}
}

// CreateCheckoutSessionRequest is the attributes body for a new checkout
// session. Line item amounts are in minor currency units.
type CreateCheckoutSessionRequest struct {
	Description        string            `json:"description"`
	LineItems          []LineItem        `json:"line_items"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	SuccessURL         string            `json:"success_url"`
	CancelURL          string            `json:"cancel_url"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ShowDescription    bool              `json:"show_description"`
	ShowLineItems      bool              `json:"show_line_items"`
	ReferenceNumber    string            `json:"reference_number,omitempty"`
}

// CheckoutSessionResult is the created provider resource.
type CheckoutSessionResult struct {
	ID         string          `json:"id"`
	Attributes CheckoutSession `json:"attributes"`
}

type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type apiErrorResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// CreateCheckoutSession creates a hosted checkout session. The returned
// session id is the correlation key webhook reconciliation relies on.
func (c *Client) CreateCheckoutSession(ctx context.Context, req *CreateCheckoutSessionRequest) (*CheckoutSessionResult, error) {
	var result CheckoutSessionResult
	if err := c.post(ctx, "/checkout_sessions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, attributes any, out any) error {
	if c.secretKey == "" {
		return ierr.NewError("paymongo secret key not configured").
			WithHint("Payment provider is not configured").
			Mark(ierr.ErrSystem)
	}

	body, err := json.Marshal(map[string]any{
		"data": map[string]any{"attributes": attributes},
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode provider request").
			Mark(ierr.ErrSystem)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// PayMongo authenticates with the secret key as basic-auth username.
	httpReq.SetBasicAuth(c.secretKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Payment provider request failed").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		detail := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		var apiErr apiErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			detail = apiErr.Errors[0].Detail
		}
		c.logger.Errorw("paymongo API error",
			"path", path,
			"status", resp.StatusCode,
			"detail", detail,
		)
		return ierr.NewError(detail).
			WithHint("Payment provider rejected the request").
			WithReportableDetails(map[string]any{
				"status": resp.StatusCode,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	var env apiEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to decode provider response").
			Mark(ierr.ErrHTTPClient)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to decode provider response").
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}
