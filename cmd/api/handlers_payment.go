// File: cmd/api/handlers_payment.go
package main

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/tienda-api/internal/httpx"
	"github.com/MikeMC777/tienda-api/internal/order"
	"github.com/MikeMC777/tienda-api/internal/payment"
)

type paymentService interface {
	CreateIntent(ctx context.Context, userID, orderID string) (*payment.IntentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// createIntentHandler abre un intento de pago por el total de la orden.
//
//	@Summary  Crear intento de pago
//	@Tags     payments
//	@Accept   json
//	@Produce  json
//	@Param    payload body payment.CreateIntentRequest true "Orden a pagar"
//	@Success  200 {object} payment.IntentResponse
//	@Failure  400 {object} product.HTTPError
//	@Failure  404 {object} product.HTTPError
//	@Failure  502 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /payments/create-intent [post]
func createIntentHandler(svc paymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := httpx.UserID(c)

		var req payment.CreateIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
			return
		}

		resp, err := svc.CreateIntent(c.Request.Context(), uid, req.OrderID)
		httpx.RecordOrderOperation("create_intent", err == nil)
		if err != nil {
			var ge *payment.GatewayError
			switch {
			case errors.Is(err, order.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			case errors.Is(err, payment.ErrAlreadyPaid):
				c.JSON(http.StatusBadRequest, gin.H{"error": "order already paid"})
			case errors.As(err, &ge):
				c.JSON(http.StatusBadGateway, gin.H{"error": ge.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create payment intent"})
			}
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// stripeWebhookHandler recibe los eventos del procesador. El body se lee
// crudo: la verificación de firma es sobre los bytes exactos.
//
//	@Summary  Webhook de pagos
//	@Tags     payments
//	@Accept   json
//	@Produce  json
//	@Success  200 {object} map[string]any
//	@Failure  400 {object} product.HTTPError
//	@Router   /payments/webhook [post]
func stripeWebhookHandler(svc paymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
			return
		}

		err = svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
		httpx.RecordOrderOperation("webhook", err == nil)
		if err != nil {
			switch {
			case errors.Is(err, payment.ErrMissingSignature),
				errors.Is(err, payment.ErrInvalidSignature),
				errors.Is(err, payment.ErrInvalidPayload):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process event"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
