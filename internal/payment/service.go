// File: internal/payment/service.go
// CreateIntent opens a payment against the gateway; HandleWebhook applies the
// gateway's verdict to local state exactly once.
package payment

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/db"
	"github.com/MikeMC777/tienda-api/internal/order"
)

var (
	ErrAlreadyPaid = errors.New("order already paid")
)

const currency = "usd"

// OrderStore is the slice of the order package the payments flow needs.
type OrderStore interface {
	GetByID(ctx context.Context, userID, orderID string) (*order.Order, error)
	MarkPaid(ctx context.Context, q db.Querier, orderID string) error
	MarkPaymentFailed(ctx context.Context, q db.Querier, orderID string) error
}

type Service struct {
	txb      db.TxBeginner
	q        db.Querier
	payments Repository
	orders   OrderStore
	gateway  Gateway
}

func NewService(txb db.TxBeginner, q db.Querier, payments Repository, orders OrderStore, gateway Gateway) *Service {
	return &Service{txb: txb, q: q, payments: payments, orders: orders, gateway: gateway}
}

// CreateIntent asks the gateway for a payment intent over the order's total
// and records it locally as a pending payment. Nothing is persisted when the
// gateway call fails.
func (s *Service) CreateIntent(ctx context.Context, userID, orderID string) (*IntentResponse, error) {
	o, err := s.orders.GetByID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == order.PaymentSuccess {
		return nil, ErrAlreadyPaid
	}

	// the processor wants minor units
	cents := o.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		OrderID:  o.ID,
		UserID:   userID,
		Amount:   cents,
		Currency: currency,
	})
	if err != nil {
		return nil, err
	}

	p := &Payment{
		ID:            uuid.NewString(),
		OrderID:       o.ID,
		PaymentMethod: "stripe",
		Amount:        o.TotalAmount,
		Status:        StatusPending,
		TransactionID: intent.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.payments.Create(ctx, s.q, p); err != nil {
		return nil, err
	}

	return &IntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          o.TotalAmount,
		Currency:        currency,
	}, nil
}

// HandleWebhook verifies the event and reconciles it. Verification failures
// surface to the caller; anything after that acks to the gateway.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	ev, err := s.gateway.VerifyAndParseEvent(payload, sigHeader)
	if err != nil {
		return err
	}
	if ev.Kind == EventIgnored {
		return nil
	}
	return s.reconcile(ctx, ev)
}

// reconcile applies one verified event inside a single transaction. Safe
// under at-least-once, any-order delivery:
//   - unknown transaction_id: logged, acknowledged, no state change
//   - payment already terminal: replays and late conflicting events no-op
func (s *Service) reconcile(ctx context.Context, ev *Event) error {
	tx, err := s.txb.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := s.payments.LockByTransactionID(ctx, tx, ev.TransactionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("[payment] evento %s para transaccion desconocida %s, ignorado", ev.Kind, ev.TransactionID)
			return nil
		}
		return err
	}

	if terminal(p.Status) {
		if (ev.Kind == EventSucceeded && p.Status != StatusCompleted) ||
			(ev.Kind == EventFailed && p.Status != StatusFailed) {
			log.Printf("[payment] evento %s en conflicto con estado terminal %s de %s, ignorado",
				ev.Kind, p.Status, p.TransactionID)
		}
		return nil
	}

	switch ev.Kind {
	case EventSucceeded:
		now := time.Now().UTC()
		if err := s.payments.UpdateStatus(ctx, tx, p.ID, StatusCompleted, &now); err != nil {
			return err
		}
		if err := s.orders.MarkPaid(ctx, tx, p.OrderID); err != nil {
			return err
		}
	case EventFailed:
		if err := s.payments.UpdateStatus(ctx, tx, p.ID, StatusFailed, nil); err != nil {
			return err
		}
		if err := s.orders.MarkPaymentFailed(ctx, tx, p.OrderID); err != nil {
			return err
		}
	default:
		return nil
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Printf("[payment] %s aplicado a %s (orden %s)", ev.Kind, p.TransactionID, p.OrderID)
	return nil
}
