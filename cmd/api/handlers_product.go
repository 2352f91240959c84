// File: cmd/api/handlers_product.go
package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/product"
)

// catalogCache is the write-side view of the product cache: handlers that
// mutate the catalog drop the stale entry.
type catalogCache interface {
	Invalidate(ctx context.Context, p *product.Product)
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// listProductsHandler lista el catálogo público (solo productos activos).
//
//	@Summary  Listar productos
//	@Tags     products
//	@Produce  json
//	@Param    q      query string false "Búsqueda en nombre y descripción"
//	@Param    limit  query int    false "Límite (default 20, max 100)"
//	@Param    offset query int    false "Offset"
//	@Success  200 {object} product.ListResponse
//	@Router   /products [get]
func listProductsHandler(catalog product.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := product.Query{
			Q:      c.Query("q"),
			Limit:  intQuery(c, "limit", 20),
			Offset: intQuery(c, "offset", 0),
		}
		items, err := catalog.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q.Q, Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

// getProductHandler resuelve /products/:key por id o por slug: la tienda
// enlaza por slug, los clientes viejos siguen mandando el uuid.
//
//	@Summary  Obtener producto
//	@Tags     products
//	@Produce  json
//	@Param    key path string true "ID o slug del producto"
//	@Success  200 {object} product.Product
//	@Failure  404 {object} product.HTTPError
//	@Router   /products/{key} [get]
func getProductHandler(catalog product.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")

		var (
			p   *product.Product
			err error
		)
		if _, uuidErr := uuid.Parse(key); uuidErr == nil {
			p, err = catalog.GetByID(c.Request.Context(), key)
		} else {
			p, err = catalog.GetBySlug(c.Request.Context(), key)
		}
		if err != nil || !p.IsActive {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// adminListProductsHandler lista el catálogo completo, inactivos incluidos.
//
//	@Summary  Listar productos (admin)
//	@Tags     admin
//	@Produce  json
//	@Param    q      query string false "Búsqueda"
//	@Param    limit  query int    false "Límite"
//	@Param    offset query int    false "Offset"
//	@Success  200 {object} product.ListResponse
//	@Security BearerAuth
//	@Router   /admin/products [get]
func adminListProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := product.Query{
			Q:               c.Query("q"),
			Limit:           intQuery(c, "limit", 20),
			Offset:          intQuery(c, "offset", 0),
			IncludeInactive: true,
		}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q.Q, Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

// createProductHandler crea un producto activo; slug y SKU se generan solos.
//
//	@Summary  Crear producto
//	@Tags     admin
//	@Accept   json
//	@Produce  json
//	@Param    payload body product.CreateProductRequest true "Producto"
//	@Success  201 {object} product.Product
//	@Failure  400 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /admin/products [post]
func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
			return
		}
		if req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
			return
		}

		p := &product.Product{
			ID:            uuid.NewString(),
			Name:          req.Name,
			Description:   req.Description,
			Price:         price,
			StockQuantity: req.Stock,
			ImageURL:      req.ImageURL,
			IsActive:      true,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler aplica un update parcial; renombrar regenera el slug.
//
//	@Summary  Actualizar producto
//	@Tags     admin
//	@Accept   json
//	@Produce  json
//	@Param    id      path string                       true "ID del producto"
//	@Param    payload body product.UpdateProductRequest true "Campos a cambiar"
//	@Success  200 {object} product.Product
//	@Failure  400 {object} product.HTTPError
//	@Failure  404 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /admin/products/{id} [put]
func updateProductHandler(repo product.Repository, cache catalogCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		cur, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		prev := *cur

		if req.Name != nil && *req.Name != cur.Name {
			if *req.Name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
				return
			}
			slug, err := repo.EnsureSlug(c.Request.Context(), *req.Name, cur.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
				return
			}
			cur.Name, cur.Slug = *req.Name, slug
		}
		if req.Description != nil {
			cur.Description = *req.Description
		}
		if req.Price != nil {
			price, err := decimal.NewFromString(*req.Price)
			if err != nil || price.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
				return
			}
			cur.Price = price
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
				return
			}
			cur.StockQuantity = *req.Stock
		}
		if req.ImageURL != nil {
			cur.ImageURL = *req.ImageURL
		}
		if req.IsActive != nil {
			cur.IsActive = *req.IsActive
		}

		if err := repo.Update(c.Request.Context(), cur); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
			return
		}

		cache.Invalidate(c.Request.Context(), &prev)
		if cur.Slug != prev.Slug {
			cache.Invalidate(c.Request.Context(), cur)
		}
		c.JSON(http.StatusOK, cur)
	}
}

// deleteProductHandler elimina un producto del catálogo.
//
//	@Summary  Eliminar producto
//	@Tags     admin
//	@Param    id path string true "ID del producto"
//	@Success  204
//	@Failure  404 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /admin/products/{id} [delete]
func deleteProductHandler(repo product.Repository, cache catalogCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}

		ok, err := repo.Delete(c.Request.Context(), p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}

		cache.Invalidate(c.Request.Context(), p)
		c.Status(http.StatusNoContent)
	}
}

// setStockHandler fija el stock absoluto de un producto. El decremento del
// checkout no pasa por aquí: ambos escriben la misma columna en products.
//
//	@Summary  Fijar stock
//	@Tags     admin
//	@Accept   json
//	@Produce  json
//	@Param    id      path string true "ID del producto"
//	@Param    payload body object true "{\"stock\": 25}"
//	@Success  200 {object} map[string]any
//	@Failure  400 {object} product.HTTPError
//	@Failure  404 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /admin/products/{id}/stock [put]
func setStockHandler(repo product.Repository, cache catalogCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Stock *int `json:"stock"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Stock == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock is required"})
			return
		}
		if *req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
			return
		}

		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err := repo.SetStock(c.Request.Context(), p.ID, *req.Stock); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update stock"})
			return
		}

		cache.Invalidate(c.Request.Context(), p)
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "stock": *req.Stock})
	}
}
