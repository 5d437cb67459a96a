package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
	"github.com/lodgepoint/lodgepoint/internal/logger"
	"github.com/lodgepoint/lodgepoint/internal/service"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

// GetBooking returns a booking by id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Booking ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to get booking", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPaymentActivity returns the booking's payments and the webhook
// deliveries that concerned them. Guests poll this after checkout.
func (h *BookingHandler) GetPaymentActivity(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Booking ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetPaymentActivity(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to get payment activity", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
