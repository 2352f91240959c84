package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/db"
)

var (
	ErrNotFound = errors.New("payment not found")
)

type Repository interface {
	Create(ctx context.Context, q db.Querier, p *Payment) error
	// LockByTransactionID pins the row for the rest of the transaction so two
	// deliveries of the same event serialize instead of both applying.
	LockByTransactionID(ctx context.Context, q db.Querier, transactionID string) (*Payment, error)
	UpdateStatus(ctx context.Context, q db.Querier, paymentID, status string, paidAt *time.Time) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, q db.Querier, p *Payment) error {
	if q == nil {
		q = r.db
	}
	_, err := q.Exec(ctx, `
		INSERT INTO payments (id, order_id, payment_method, amount, status, transaction_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, p.ID, p.OrderID, p.PaymentMethod, p.Amount.String(), p.Status, p.TransactionID, p.CreatedAt)
	return err
}

func (r *PGRepo) LockByTransactionID(ctx context.Context, q db.Querier, transactionID string) (*Payment, error) {
	if q == nil {
		q = r.db
	}
	var p Payment
	var amountText string
	err := q.QueryRow(ctx, `
		SELECT id, order_id, payment_method, amount::text, status, transaction_id, paid_at, created_at
		FROM payments WHERE transaction_id=$1
		FOR UPDATE
	`, transactionID).Scan(&p.ID, &p.OrderID, &p.PaymentMethod, &amountText,
		&p.Status, &p.TransactionID, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	p.Amount = amount
	return &p, nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, q db.Querier, paymentID, status string, paidAt *time.Time) error {
	if q == nil {
		q = r.db
	}
	tag, err := q.Exec(ctx, `
		UPDATE payments SET status = $2, paid_at = $3 WHERE id = $1
	`, paymentID, status, paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
