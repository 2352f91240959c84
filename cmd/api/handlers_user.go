// File: cmd/api/handlers_user.go
package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/tienda-api/internal/auth"
	"github.com/MikeMC777/tienda-api/internal/httpx"
	"github.com/MikeMC777/tienda-api/internal/user"
)

// tokenIssuer is the slice of auth.Manager that login needs.
type tokenIssuer interface {
	Issue(userID, role string) (string, error)
}

// registerHandler da de alta un usuario con rol customer.
//
//	@Summary  Registrar usuario
//	@Tags     users
//	@Accept   json
//	@Produce  json
//	@Param    payload body user.RegisterRequest true "Datos de registro"
//	@Success  201 {object} user.User
//	@Failure  400 {object} product.HTTPError
//	@Failure  409 {object} product.HTTPError
//	@Router   /users/register [post]
func registerHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
			return
		}

		u := &user.User{
			ID:           uuid.NewString(),
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         user.RoleCustomer,
		}
		if err := users.Create(c.Request.Context(), u); err != nil {
			if errors.Is(err, user.ErrAlreadyExist) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// loginHandler valida credenciales y emite el token de acceso.
//
//	@Summary  Login
//	@Tags     users
//	@Accept   json
//	@Produce  json
//	@Param    payload body user.LoginRequest true "Credenciales"
//	@Success  200 {object} user.TokenResponse
//	@Failure  401 {object} product.HTTPError
//	@Router   /users/login [post]
func loginHandler(users user.Repository, tokens tokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// mismo 401 exista o no el correo
		u, err := users.GetByEmail(c.Request.Context(), req.Email)
		if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := tokens.Issue(u.ID, u.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, user.TokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

// meHandler devuelve el perfil del usuario autenticado.
//
//	@Summary  Perfil propio
//	@Tags     users
//	@Produce  json
//	@Success  200 {object} user.User
//	@Failure  401 {object} product.HTTPError
//	@Security BearerAuth
//	@Router   /users/me [get]
func meHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := httpx.UserID(c)
		u, err := users.GetByID(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
