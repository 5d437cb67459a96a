package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	v1 "github.com/lodgepoint/lodgepoint/internal/api/v1"
	"github.com/lodgepoint/lodgepoint/internal/rest/middleware"
)

type Handlers struct {
	Webhook *v1.WebhookHandler
	Payment *v1.PaymentHandler
	Booking *v1.BookingHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Webhook routes. The webhook handler owns its response contract and
	// bypasses the error middleware.
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/paymongo", handlers.Webhook.HandlePayMongo)
	}

	// Payment routes
	payments := router.Group("/payments")
	{
		payments.POST("/checkout", handlers.Payment.CreateCheckout)
		payments.GET("/:id", handlers.Payment.GetPayment)
		payments.POST("/:id/confirm", handlers.Payment.ConfirmManualPayment)
	}

	// Booking routes
	bookings := router.Group("/bookings")
	{
		bookings.GET("/:id", handlers.Booking.GetBooking)
		bookings.GET("/:id/payment-activity", handlers.Booking.GetPaymentActivity)
	}
}
