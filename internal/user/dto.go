package user

// RegisterRequest payload de alta de usuario.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Email     string `json:"email"      binding:"required,email" example:"ana@example.com"`
	Password  string `json:"password"   binding:"required,min=8" example:"s3cret-pass"`
	FirstName string `json:"first_name" example:"Ana"`
	LastName  string `json:"last_name"  example:"García"`
	Phone     string `json:"phone"      example:"+52 55 1234 5678"`
}

// LoginRequest payload de inicio de sesión.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email" example:"ana@example.com"`
	Password string `json:"password" binding:"required"       example:"s3cret-pass"`
}

// TokenResponse is the login result the client stores.
// swagger:model TokenResponse
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
}
