// File: internal/payment/gateway.go
// Gateway is the only door to the payment processor; everything above it
// works with verified, typed events.
package payment

import (
	"context"
	"errors"
)

const (
	EventSucceeded = "succeeded"
	EventFailed    = "failed"
	// EventIgnored covers event types we receive but do not act on.
	EventIgnored = "ignored"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// GatewayError wraps an upstream processor failure with its message.
type GatewayError struct {
	Msg string
}

func (e *GatewayError) Error() string { return "payment gateway: " + e.Msg }

// Event is a verified webhook notification.
type Event struct {
	Kind          string
	TransactionID string
}

// IntentRequest carries the amount in the processor's minor units (cents).
type IntentRequest struct {
	OrderID  string
	UserID   string
	Amount   int64
	Currency string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	VerifyAndParseEvent(payload []byte, sigHeader string) (*Event, error)
}
