// File: cmd/api/handlers_order.go
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/tienda-api/internal/httpx"
	"github.com/MikeMC777/tienda-api/internal/order"
)

// checkoutPlacer is the one operation the checkout route needs.
type checkoutPlacer interface {
	PlaceOrder(ctx context.Context, userID, shippingID, billingID string) (*order.Order, error)
}

// createOrderHandler convierte el carrito del usuario en una orden.
//
//	@Summary  Checkout
//	@Tags     orders
//	@Accept   json
//	@Produce  json
//	@Param    payload body order.CreateOrderRequest true "Direcciones de envío y cobro"
//	@Success  201 {object} order.Order
//	@Failure  400 {object} product.HTTPError
//	@Failure  409 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /orders [post]
func createOrderHandler(checkout checkoutPlacer) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := httpx.UserID(c)

		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.ShippingAddressID == "" || req.BillingAddressID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shipping_address_id and billing_address_id are required"})
			return
		}

		o, err := checkout.PlaceOrder(c.Request.Context(), uid, req.ShippingAddressID, req.BillingAddressID)
		httpx.RecordOrderOperation("checkout", err == nil)
		if err != nil {
			var se *order.StockError
			switch {
			case errors.As(err, &se):
				c.JSON(http.StatusConflict, gin.H{
					"error":      se.Error(),
					"product_id": se.ProductID,
					"available":  se.Available,
				})
			case errors.Is(err, order.ErrInvalidAddress):
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
			case errors.Is(err, order.ErrEmptyCart):
				c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not place order"})
			}
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// listOrdersHandler lista las órdenes del usuario autenticado.
//
//	@Summary  Listar órdenes
//	@Tags     orders
//	@Produce  json
//	@Param    limit  query int false "Límite (default 20)"
//	@Param    offset query int false "Offset"
//	@Success  200 {array} order.Order
//	@Security BearerAuth
//	@Router   /orders [get]
func listOrdersHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := httpx.UserID(c)

		out, err := orders.ListByUser(c.Request.Context(), uid, intQuery(c, "limit", 20), intQuery(c, "offset", 0))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
			return
		}
		if out == nil {
			out = []order.Order{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// getOrderHandler devuelve una orden propia con sus líneas.
//
//	@Summary  Ver orden
//	@Tags     orders
//	@Produce  json
//	@Param    id path string true "ID de la orden"
//	@Success  200 {object} order.Order
//	@Failure  404 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /orders/{id} [get]
func getOrderHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := httpx.UserID(c)

		o, err := orders.GetByID(c.Request.Context(), uid, c.Param("id"))
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load order"})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// updateOrderStatusHandler cambia el estado de una orden (solo admin).
//
//	@Summary  Cambiar estado de orden
//	@Tags     admin
//	@Accept   json
//	@Produce  json
//	@Param    id      path string                    true "ID de la orden"
//	@Param    payload body order.UpdateStatusRequest true "Estado nuevo"
//	@Success  200 {object} map[string]any
//	@Failure  400 {object} product.HTTPError
//	@Failure  404 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /admin/orders/{id}/status [put]
func updateOrderStatusHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if !order.ValidStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status. must be one of: pending, paid, shipped, delivered, cancelled"})
			return
		}

		id := c.Param("id")
		if err := orders.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
			if errors.Is(err, order.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order_id": id, "new_status": req.Status})
	}
}

// markShippedHandler marca la orden como enviada; sin body usa la hora actual.
//
//	@Summary  Marcar orden enviada
//	@Tags     admin
//	@Accept   json
//	@Produce  json
//	@Param    id      path string                 true  "ID de la orden"
//	@Param    payload body order.ShipOrderRequest false "Fecha de envío opcional"
//	@Success  200 {object} map[string]any
//	@Failure  400 {object} product.HTTPError
//	@Failure  404 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /admin/orders/{id}/shipping [put]
func markShippedHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		shippedAt := time.Now().UTC()
		if c.Request.ContentLength > 0 {
			var req order.ShipOrderRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
				return
			}
			if req.ShippedAt != "" {
				t, err := time.Parse(time.RFC3339, req.ShippedAt)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "shipped_at must be RFC3339"})
					return
				}
				shippedAt = t.UTC()
			}
		}

		id := c.Param("id")
		if err := orders.MarkShipped(c.Request.Context(), id, shippedAt); err != nil {
			if errors.Is(err, order.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order marked as shipped", "order_id": id, "shipped_at": shippedAt})
	}
}
