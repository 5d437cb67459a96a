package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lodgepoint/lodgepoint/internal/api/dto"
	"github.com/lodgepoint/lodgepoint/internal/config"
	"github.com/lodgepoint/lodgepoint/internal/integration/paymongo"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/service"
)

type WebhookHandler struct {
	service service.WebhookService
	config  *config.Configuration
	log     *logger.Logger
}

func NewWebhookHandler(service service.WebhookService, config *config.Configuration, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, config: config, log: log}
}

// HandlePayMongo receives provider webhook deliveries. The response
// contract is fixed: 400 for configuration or structural problems, 401 for
// a bad signature, 200 with received:true for everything the ledger could
// record, and 500 only when the ledger itself was unreachable so the
// provider retries.
func (h *WebhookHandler) HandlePayMongo(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Errorw("failed to read webhook body", "error", err)
		c.JSON(http.StatusBadRequest, dto.WebhookResponse{Received: false, Error: "Invalid payload"})
		return
	}

	secret := h.config.PayMongo.WebhookSecret
	signature := c.GetHeader(paymongo.SignatureHeader)
	if secret == "" || signature == "" {
		h.log.Errorw("webhook rejected, signature prerequisites missing",
			"secret_configured", secret != "",
			"signature_present", signature != "",
		)
		c.JSON(http.StatusBadRequest, dto.WebhookResponse{Received: false, Error: "Configuration error"})
		return
	}

	if !paymongo.VerifySignature(raw, signature, secret) {
		h.log.Warnw("webhook rejected, invalid signature")
		c.JSON(http.StatusUnauthorized, dto.WebhookResponse{Received: false, Error: "Invalid signature"})
		return
	}

	event, err := paymongo.ParseEvent(raw)
	if err != nil {
		h.log.Warnw("webhook rejected, malformed event", "error", err)
		c.JSON(http.StatusBadRequest, dto.WebhookResponse{Received: false, Error: "Invalid event structure"})
		return
	}

	result, err := h.service.ProcessEvent(c.Request.Context(), raw, event)
	if err != nil {
		// The event could not be recorded; signal the provider to retry.
		h.log.Errorw("webhook ledger unavailable", "event_id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.WebhookResponse{
			Received:  true,
			Processed: false,
			Error:     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Processed: result.Processed})
}
