package order

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
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	InsertOrder(ctx context.Context, q db.Querier, o *Order) error
	InsertItems(ctx context.Context, q db.Querier, items []Item) error
	GetByID(ctx context.Context, userID, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	MarkShipped(ctx context.Context, orderID string, shippedAt time.Time) error
	MarkPaid(ctx context.Context, q db.Querier, orderID string) error
	MarkPaymentFailed(ctx context.Context, q db.Querier, orderID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderCols = `id, user_id, shipping_address_id, billing_address_id, order_number, tx_ref,
	total_amount::text, status, payment_status, order_date, shipped_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var totalText string
	if err := row.Scan(&o.ID, &o.UserID, &o.ShippingAddressID, &o.BillingAddressID,
		&o.OrderNumber, &o.TxRef, &totalText, &o.Status, &o.PaymentStatus,
		&o.OrderDate, &o.ShippedAt); err != nil {
		return nil, err
	}
	total, err := decimal.NewFromString(totalText)
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	o.TotalAmount = total
	return &o, nil
}

func (r *PGRepo) InsertOrder(ctx context.Context, q db.Querier, o *Order) error {
	if q == nil {
		q = r.db
	}
	_, err := q.Exec(ctx, `
		INSERT INTO orders (id, user_id, shipping_address_id, billing_address_id,
		                    order_number, tx_ref, total_amount, status, payment_status, order_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, o.ID, o.UserID, o.ShippingAddressID, o.BillingAddressID,
		o.OrderNumber, o.TxRef, o.TotalAmount.String(), o.Status, o.PaymentStatus, o.OrderDate)
	return err
}

func (r *PGRepo) InsertItems(ctx context.Context, q db.Querier, items []Item) error {
	if q == nil {
		q = r.db
	}
	for _, it := range items {
		if _, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, unit_price, quantity)
			VALUES ($1,$2,$3,$4,$5)
		`, it.ID, it.OrderID, it.ProductID, it.UnitPrice.String(), it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// GetByID is user-scoped: an order that belongs to someone else reads as not
// found, so order ids never leak existence.
func (r *PGRepo) GetByID(ctx context.Context, userID, orderID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderCols+`
		FROM orders WHERE id=$1 AND user_id=$2
	`, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := r.itemsByOrder(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+orderCols+`
		FROM orders WHERE user_id=$1
		ORDER BY order_date DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.itemsByOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *PGRepo) itemsByOrder(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, unit_price::text, quantity
		FROM order_items WHERE order_id = ANY($1)
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Item{}
	for rows.Next() {
		var it Item
		var priceText string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &priceText, &it.Quantity); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("parse unit_price: %w", err)
		}
		it.UnitPrice = price
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, orderID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1
	`, orderID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) MarkShipped(ctx context.Context, orderID string, shippedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2, shipped_at = $3 WHERE id = $1
	`, orderID, StatusShipped, shippedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid runs inside the reconciliation transaction.
func (r *PGRepo) MarkPaid(ctx context.Context, q db.Querier, orderID string) error {
	if q == nil {
		q = r.db
	}
	tag, err := q.Exec(ctx, `
		UPDATE orders SET status = $2, payment_status = $3 WHERE id = $1
	`, orderID, StatusPaid, PaymentSuccess)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaymentFailed flags the payment without moving the order forward; the
// buyer can retry against the same order.
func (r *PGRepo) MarkPaymentFailed(ctx context.Context, q db.Querier, orderID string) error {
	if q == nil {
		q = r.db
	}
	tag, err := q.Exec(ctx, `
		UPDATE orders SET payment_status = $2 WHERE id = $1
	`, orderID, PaymentFailed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
