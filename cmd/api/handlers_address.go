// File: cmd/api/handlers_address.go
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/tienda-api/internal/address"
	"github.com/MikeMC777/tienda-api/internal/httpx"
)

// createAddressHandler registra una dirección del usuario autenticado.
//
//	@Summary  Crear dirección
//	@Tags     addresses
//	@Accept   json
//	@Produce  json
//	@Param    payload body address.CreateAddressRequest true "Dirección"
//	@Success  201 {object} address.Address
//	@Failure  400 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /addresses [post]
func createAddressHandler(addresses address.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := httpx.UserID(c)

		var req address.CreateAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		a := &address.Address{
			ID:         uuid.NewString(),
			UserID:     uid,
			Type:       req.Type,
			Street:     req.Street,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
			Country:    req.Country,
			IsDefault:  req.IsDefault,
		}
		if err := addresses.Create(c.Request.Context(), a); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create address"})
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

// listAddressesHandler lista las direcciones del usuario autenticado.
//
//	@Summary  Listar direcciones
//	@Tags     addresses
//	@Produce  json
//	@Success  200 {array} address.Address
//	@Security BearerAuth
//	@Router   /addresses [get]
func listAddressesHandler(addresses address.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := httpx.UserID(c)
		out, err := addresses.ListByUser(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list addresses"})
			return
		}
		if out == nil {
			out = []address.Address{}
		}
		c.JSON(http.StatusOK, out)
	}
}
