package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart belongs to a user or to an anonymous session, never both. A merge can
// re-own a session cart, clearing session_id and setting user_id.
type Cart struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	SessionID *string   `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// ItemDetail is a cart line joined with its product. Stock rides along for
// the checkout path and never reaches JSON.
type ItemDetail struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Stock       int             `json:"-"`
}

// Details is the cart view returned by the API.
// swagger:model CartDetails
type Details struct {
	ID         string          `json:"id"`
	Items      []ItemDetail    `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"total_items"`
}

// AddItemRequest payload for adding a product to the cart.
// swagger:model AddItemRequest
type AddItemRequest struct {
	ProductID string `json:"product_id" example:"9b3f..."`
	Quantity  int    `json:"quantity"   example:"2"`
}

// UpdateItemRequest payload for changing a line's quantity.
// swagger:model UpdateItemRequest
type UpdateItemRequest struct {
	Quantity int `json:"quantity" example:"3"`
}
