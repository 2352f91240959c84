// File: internal/cart/store.go
// Low-level cart persistence. Every method takes a db.Querier so the same
// primitive works against the pool or inside a transaction.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/db"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

type Store interface {
	GetByUser(ctx context.Context, q db.Querier, userID string) (*Cart, error)
	GetBySession(ctx context.Context, q db.Querier, sessionID string) (*Cart, error)
	LockByUser(ctx context.Context, q db.Querier, userID string) (*Cart, error)
	LockBySession(ctx context.Context, q db.Querier, sessionID string) (*Cart, error)
	Create(ctx context.Context, q db.Querier, c *Cart) error
	Rekey(ctx context.Context, q db.Querier, cartID, userID string) error
	Delete(ctx context.Context, q db.Querier, cartID string) error

	Items(ctx context.Context, q db.Querier, cartID string) ([]Item, error)
	UpsertItem(ctx context.Context, q db.Querier, it *Item) error
	SetQuantity(ctx context.Context, q db.Querier, cartID, itemID string, qty int) (bool, error)
	DeleteItem(ctx context.Context, q db.Querier, cartID, itemID string) (bool, error)
	ClearItems(ctx context.Context, q db.Querier, cartID string) error

	ItemsDetailed(ctx context.Context, q db.Querier, cartID string) ([]ItemDetail, error)
	ItemsForUpdate(ctx context.Context, q db.Querier, cartID string) ([]ItemDetail, error)
}

type PGStore struct{}

func NewPGStore() *PGStore { return &PGStore{} }

const cartCols = `id, user_id, session_id, created_at, updated_at`

func scanCart(row pgx.Row) (*Cart, error) {
	var c Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.SessionID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) GetByUser(ctx context.Context, q db.Querier, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanCart(q.QueryRow(ctx, `
		SELECT `+cartCols+` FROM carts WHERE user_id=$1
	`, userID))
}

func (s *PGStore) GetBySession(ctx context.Context, q db.Querier, sessionID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanCart(q.QueryRow(ctx, `
		SELECT `+cartCols+` FROM carts WHERE session_id=$1
	`, sessionID))
}

// LockByUser holds the cart row until the surrounding transaction ends.
func (s *PGStore) LockByUser(ctx context.Context, q db.Querier, userID string) (*Cart, error) {
	return scanCart(q.QueryRow(ctx, `
		SELECT `+cartCols+` FROM carts WHERE user_id=$1 FOR UPDATE
	`, userID))
}

func (s *PGStore) LockBySession(ctx context.Context, q db.Querier, sessionID string) (*Cart, error) {
	return scanCart(q.QueryRow(ctx, `
		SELECT `+cartCols+` FROM carts WHERE session_id=$1 FOR UPDATE
	`, sessionID))
}

func (s *PGStore) Create(ctx context.Context, q db.Querier, c *Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := q.Exec(ctx, `
		INSERT INTO carts (id, user_id, session_id, created_at, updated_at)
		VALUES ($1,$2,$3,NOW(),NOW())
	`, c.ID, c.UserID, c.SessionID)
	return err
}

// Rekey re-owns a session cart: the fast path of the merge.
func (s *PGStore) Rekey(ctx context.Context, q db.Querier, cartID, userID string) error {
	tag, err := q.Exec(ctx, `
		UPDATE carts
		SET user_id = $2, session_id = NULL, updated_at = NOW()
		WHERE id = $1
	`, cartID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, q db.Querier, cartID string) error {
	_, err := q.Exec(ctx, `DELETE FROM carts WHERE id=$1`, cartID)
	return err
}

func (s *PGStore) Items(ctx context.Context, q db.Querier, cartID string) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, cart_id, product_id, quantity, added_at
		FROM cart_items WHERE cart_id=$1
		ORDER BY added_at
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpsertItem inserts the line or, if the product is already in the cart,
// adds the quantities. The item comes back with the winning row's id and
// the accumulated quantity.
func (s *PGStore) UpsertItem(ctx context.Context, q db.Querier, it *Item) error {
	return q.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, added_at)
		VALUES ($1,$2,$3,$4,NOW())
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, added_at
	`, it.ID, it.CartID, it.ProductID, it.Quantity).Scan(&it.ID, &it.Quantity, &it.AddedAt)
}

func (s *PGStore) SetQuantity(ctx context.Context, q db.Querier, cartID, itemID string, qty int) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE id = $1 AND cart_id = $2
	`, itemID, cartID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) DeleteItem(ctx context.Context, q db.Querier, cartID, itemID string) (bool, error) {
	tag, err := q.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND cart_id = $2
	`, itemID, cartID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClearItems empties the cart after checkout; the cart row survives.
func (s *PGStore) ClearItems(ctx context.Context, q db.Querier, cartID string) error {
	_, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID)
	return err
}

func (s *PGStore) ItemsDetailed(ctx context.Context, q db.Querier, cartID string) ([]ItemDetail, error) {
	return s.itemsJoined(ctx, q, cartID, "")
}

// ItemsForUpdate locks the product rows so a concurrent checkout against the
// same products serializes behind this transaction.
func (s *PGStore) ItemsForUpdate(ctx context.Context, q db.Querier, cartID string) ([]ItemDetail, error) {
	return s.itemsJoined(ctx, q, cartID, "FOR UPDATE OF p")
}

func (s *PGStore) itemsJoined(ctx context.Context, q db.Querier, cartID, lock string) ([]ItemDetail, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`
		SELECT ci.id, ci.product_id, p.name, p.price::text, ci.quantity, p.stock_quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at
		%s
	`, lock), cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemDetail
	for rows.Next() {
		var d ItemDetail
		var priceText string
		if err := rows.Scan(&d.ID, &d.ProductID, &d.ProductName, &priceText, &d.Quantity, &d.Stock); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		d.UnitPrice = price
		d.Subtotal = price.Mul(decimal.NewFromInt(int64(d.Quantity)))
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ Store = (*PGStore)(nil)
