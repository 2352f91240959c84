// File: cmd/api/handlers_cart.go
// The cart serves both anonymous visitors (cookie session) and logged-in
// users; an authenticated request with a leftover session cookie folds the
// anonymous cart into the user's before answering.
package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/tienda-api/internal/cart"
	"github.com/MikeMC777/tienda-api/internal/httpx"
)

const (
	sessionCookie = "session_id"
	// 15 days, like the storefront has always done
	sessionMaxAge = 15 * 24 * 60 * 60
)

type cartService interface {
	GetOrCreate(ctx context.Context, userID, sessionID string) (*cart.Cart, error)
	AddItem(ctx context.Context, c *cart.Cart, productID string, qty int) (*cart.Item, error)
	UpdateItem(ctx context.Context, c *cart.Cart, itemID string, qty int) error
	RemoveItem(ctx context.Context, c *cart.Cart, itemID string) error
	Details(ctx context.Context, c *cart.Cart) (*cart.Details, error)
	Merge(ctx context.Context, userID, sessionID string) error
}

// resolveCart locates the caller's cart. First anonymous access mints the
// session cookie; authenticated access merges any pending session cart first
// (the merge is idempotent, so running it per request is safe).
func resolveCart(c *gin.Context, svc cartService) (*cart.Cart, error) {
	ctx := c.Request.Context()

	if uid, ok := httpx.UserID(c); ok {
		if sid, err := c.Cookie(sessionCookie); err == nil && sid != "" {
			if err := svc.Merge(ctx, uid, sid); err != nil {
				return nil, err
			}
		}
		return svc.GetOrCreate(ctx, uid, "")
	}

	sid, err := c.Cookie(sessionCookie)
	if err != nil || sid == "" {
		sid = uuid.NewString()
		c.SetCookie(sessionCookie, sid, sessionMaxAge, "/", "", false, true)
	}
	return svc.GetOrCreate(ctx, "", sid)
}

// getCartHandler devuelve el carrito del visitante con líneas y totales.
//
//	@Summary  Ver carrito
//	@Tags     cart
//	@Produce  json
//	@Success  200 {object} cart.Details
//	@Router   /cart [get]
func getCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct, err := resolveCart(c, svc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve cart"})
			return
		}
		d, err := svc.Details(c.Request.Context(), ct)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load cart"})
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// addCartItemHandler agrega unidades de un producto; si la línea ya existe
// las cantidades se acumulan.
//
//	@Summary  Agregar al carrito
//	@Tags     cart
//	@Accept   json
//	@Produce  json
//	@Param    payload body cart.AddItemRequest true "Producto y cantidad"
//	@Success  201 {object} map[string]any
//	@Failure  400 {object} product.HTTPError
//	@Failure  404 {object} product.HTTPError
//	@Failure  409 {object} product.HTTPError
//	@Router   /cart/items [post]
func addCartItemHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
			return
		}
		if req.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be >= 1"})
			return
		}

		ct, err := resolveCart(c, svc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve cart"})
			return
		}

		it, err := svc.AddItem(c.Request.Context(), ct, req.ProductID, req.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, cart.ErrProductNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			case errors.Is(err, cart.ErrOutOfStock):
				c.JSON(http.StatusConflict, gin.H{"error": "product out of stock"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add item"})
			}
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "item added", "item_id": it.ID})
	}
}

// updateCartItemHandler cambia la cantidad de una línea.
//
//	@Summary  Actualizar línea del carrito
//	@Tags     cart
//	@Accept   json
//	@Produce  json
//	@Param    id      path string                 true "ID de la línea"
//	@Param    payload body cart.UpdateItemRequest true "Cantidad nueva"
//	@Success  200 {object} map[string]any
//	@Failure  400 {object} product.HTTPError
//	@Failure  404 {object} product.HTTPError
//	@Router   /cart/items/{id} [put]
func updateCartItemHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be >= 1"})
			return
		}

		ct, err := resolveCart(c, svc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve cart"})
			return
		}

		if err := svc.UpdateItem(c.Request.Context(), ct, c.Param("id"), req.Quantity); err != nil {
			if errors.Is(err, cart.ErrItemNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update item"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "item updated"})
	}
}

// removeCartItemHandler saca una línea del carrito.
//
//	@Summary  Quitar línea del carrito
//	@Tags     cart
//	@Produce  json
//	@Param    id path string true "ID de la línea"
//	@Success  200 {object} map[string]any
//	@Failure  404 {object} product.HTTPError
//	@Router   /cart/items/{id} [delete]
func removeCartItemHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct, err := resolveCart(c, svc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve cart"})
			return
		}

		if err := svc.RemoveItem(c.Request.Context(), ct, c.Param("id")); err != nil {
			if errors.Is(err, cart.ErrItemNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove item"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "item removed"})
	}
}
