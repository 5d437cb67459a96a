package v1

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lodgepoint/lodgepoint/internal/config"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWebhookService struct {
	result *service.ProcessResult
	err    error
	calls  int
}

func (s *stubWebhookService) ProcessEvent(ctx context.Context, raw []byte, event *paymongo.Event) (*service.ProcessResult, error) {
	s.calls++
	return s.result, s.err
}

const testWebhookSecret = "whsec_test_secret"

func validEventBody() []byte {
	return []byte(`{
		"data": {
			"id": "evt_1",
			"type": "event",
			"attributes": {
				"type": "checkout_session.payment.paid",
				"livemode": false,
				"data": {
					"id": "cs_1",
					"type": "checkout_session",
					"attributes": {
						"line_items": [{"name": "Room", "currency": "PHP", "amount": 500000, "quantity": 1}],
						"success_url": "https://example.com/s",
						"cancel_url": "https://example.com/c",
						"metadata": {"booking_id": "book_1"}
					}
				}
			}
		}
	}`)
}

func signatureFor(body []byte, secret string) string {
	timestamp := "1725148800"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,te=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func newWebhookTestHandler(t *testing.T, stub *stubWebhookService, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	cfg.PayMongo.WebhookSecret = secret

	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	handler := NewWebhookHandler(stub, cfg, log)
	router := gin.New()
	router.POST("/v1/webhooks/paymongo", handler.HandlePayMongo)
	return router
}

func postWebhook(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/paymongo", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(paymongo.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWebhookHandler_MissingSecretConfig(t *testing.T) {
	stub := &stubWebhookService{}
	router := newWebhookTestHandler(t, stub, "")
	body := validEventBody()

	w := postWebhook(router, body, signatureFor(body, testWebhookSecret))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, false, resp["received"])
	assert.Equal(t, "Configuration error", resp["error"])
	assert.Zero(t, stub.calls)
}

func TestWebhookHandler_MissingSignatureHeader(t *testing.T) {
	stub := &stubWebhookService{}
	router := newWebhookTestHandler(t, stub, testWebhookSecret)

	w := postWebhook(router, validEventBody(), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, false, resp["received"])
	assert.Zero(t, stub.calls)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	stub := &stubWebhookService{}
	router := newWebhookTestHandler(t, stub, testWebhookSecret)
	body := validEventBody()

	w := postWebhook(router, body, signatureFor(body, "whsec_wrong_secret"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, false, resp["received"])
	assert.Equal(t, "Invalid signature", resp["error"])
	assert.Zero(t, stub.calls)
}

func TestWebhookHandler_MalformedEvent(t *testing.T) {
	stub := &stubWebhookService{}
	router := newWebhookTestHandler(t, stub, testWebhookSecret)

	// Correctly signed, structurally invalid.
	body := []byte(`{"data": {"id": "", "type": ""}}`)
	w := postWebhook(router, body, signatureFor(body, testWebhookSecret))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, false, resp["received"])
	assert.Equal(t, "Invalid event structure", resp["error"])
	assert.Zero(t, stub.calls)
}

func TestWebhookHandler_ProcessedEvent(t *testing.T) {
	stub := &stubWebhookService{result: &service.ProcessResult{Processed: true}}
	router := newWebhookTestHandler(t, stub, testWebhookSecret)
	body := validEventBody()

	w := postWebhook(router, body, signatureFor(body, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, true, resp["processed"])
	assert.Equal(t, 1, stub.calls)
}

func TestWebhookHandler_BusinessFailureStillAcknowledged(t *testing.T) {
	stub := &stubWebhookService{result: &service.ProcessResult{Processed: false}}
	router := newWebhookTestHandler(t, stub, testWebhookSecret)
	body := validEventBody()

	w := postWebhook(router, body, signatureFor(body, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, false, resp["processed"])
}

func TestWebhookHandler_LedgerOutageReturns500(t *testing.T) {
	stub := &stubWebhookService{
		err: ierr.NewError("connection refused").Mark(ierr.ErrDatabase),
	}
	router := newWebhookTestHandler(t, stub, testWebhookSecret)
	body := validEventBody()

	w := postWebhook(router, body, signatureFor(body, testWebhookSecret))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, false, resp["processed"])
	assert.Contains(t, resp["error"], "connection refused")
}
