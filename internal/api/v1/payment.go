package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lodgepoint/lodgepoint/internal/api/dto"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/service"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

// CreateCheckout starts a hosted checkout session for a booking.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateCheckout(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to create checkout", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ConfirmManualPayment settles a payment collected outside the provider.
func (h *PaymentHandler) ConfirmManualPayment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Payment ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.ConfirmManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.PaymentID = id

	resp, err := h.service.ConfirmManualPayment(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to confirm manual payment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPayment returns a payment by id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Payment ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to get payment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
