package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	ShippingAddressID string          `json:"shipping_address_id"`
	BillingAddressID  string          `json:"billing_address_id"`
	OrderNumber       string          `json:"order_number"`
	TxRef             string          `json:"tx_ref"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"payment_status"`
	OrderDate         time.Time       `json:"order_date"`
	ShippedAt         *time.Time      `json:"shipped_at,omitempty"`
	Items             []Item          `json:"items,omitempty"`
}

type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"` // price snapshot at checkout
	Quantity  int             `json:"quantity"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// NewOrderNumber: ORD-<fecha>-<10 chars de uuid>, legible en soporte.
func NewOrderNumber() string {
	stamp := time.Now().UTC().Format("20060102,150405")
	suffix := strings.ToUpper(uuid.NewString()[:10])
	return fmt.Sprintf("ORD-%s-%s", stamp, suffix)
}

// NewTxRef is the reference we hand to the payment gateway.
func NewTxRef() string {
	return "TX-" + uuid.NewString()
}
