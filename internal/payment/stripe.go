// File: internal/payment/stripe.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Gateway against Stripe's API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("user_id", req.UserID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return nil, &GatewayError{Msg: stripeErr.Msg}
		}
		return nil, &GatewayError{Msg: err.Error()}
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyAndParseEvent authenticates the webhook before anything else looks at
// the payload. Event types other than the two payment_intent outcomes come
// back as EventIgnored.
func (g *StripeGateway) VerifyAndParseEvent(payload []byte, sigHeader string) (*Event, error) {
	if sigHeader == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned):
			return nil, ErrMissingSignature
		case errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidPayload
		}
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		log.Printf("[stripe] evento %s ignorado", event.Type)
		return &Event{Kind: EventIgnored}, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, ErrInvalidPayload
	}

	kind := EventSucceeded
	if event.Type == "payment_intent.payment_failed" {
		kind = EventFailed
	}
	return &Event{Kind: kind, TransactionID: pi.ID}, nil
}

var _ Gateway = (*StripeGateway)(nil)
