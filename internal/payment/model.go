package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// terminal reports whether a payment status can no longer change: the first
// terminal status wins against any later or replayed event.
func terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

type Payment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IntentResponse is what the storefront needs to confirm the payment.
// swagger:model IntentResponse
type IntentResponse struct {
	ClientSecret    string          `json:"client_secret"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// CreateIntentRequest payload to start a payment for an order.
// swagger:model CreateIntentRequest
type CreateIntentRequest struct {
	OrderID string `json:"order_id" example:"0c1de2f3-..."`
}
