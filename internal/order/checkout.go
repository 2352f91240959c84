// File: internal/order/checkout.go
// Checkout turns the user's cart into a durable order in one transaction:
// validate -> snapshot -> persist -> deduct -> clear cart -> commit.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/cart"
	"github.com/MikeMC777/tienda-api/internal/db"
	"github.com/MikeMC777/tienda-api/internal/product"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidAddress = errors.New("invalid address")
)

// StockError names the product that blocked the checkout and how many units
// were actually available at that moment.
type StockError struct {
	ProductID   string
	ProductName string
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. available: %d", e.ProductName, e.Available)
}

// CartStore is the slice of the cart package the checkout needs.
type CartStore interface {
	GetByUser(ctx context.Context, q db.Querier, userID string) (*cart.Cart, error)
	ItemsForUpdate(ctx context.Context, q db.Querier, cartID string) ([]cart.ItemDetail, error)
	ClearItems(ctx context.Context, q db.Querier, cartID string) error
}

type AddressChecker interface {
	BelongsTo(ctx context.Context, q db.Querier, addressID, userID string) (bool, error)
}

type StockDecrementer interface {
	DecrementStock(ctx context.Context, q db.Querier, productID string, qty int) error
}

type Service struct {
	txb       db.TxBeginner
	orders    Repository
	carts     CartStore
	addresses AddressChecker
	stock     StockDecrementer
}

func NewService(txb db.TxBeginner, orders Repository, carts CartStore, addresses AddressChecker, stock StockDecrementer) *Service {
	return &Service{txb: txb, orders: orders, carts: carts, addresses: addresses, stock: stock}
}

// PlaceOrder consumes the user's cart. Any error before commit leaves no
// order row, no stock change and the cart untouched.
func (s *Service) PlaceOrder(ctx context.Context, userID, shippingID, billingID string) (*Order, error) {
	tx, err := s.txb.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, addrID := range []string{shippingID, billingID} {
		ok, err := s.addresses.BelongsTo(ctx, tx, addrID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidAddress
		}
	}

	c, err := s.carts.GetByUser(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}

	// Snapshot the lines with the product rows locked: prices and stock read
	// here are the ones the whole order is built from.
	lines, err := s.carts.ItemsForUpdate(ctx, tx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var total decimal.Decimal
	for _, ln := range lines {
		if ln.Stock < ln.Quantity {
			return nil, &StockError{ProductID: ln.ProductID, ProductName: ln.ProductName, Available: ln.Stock}
		}
		total = total.Add(ln.Subtotal)
	}

	o := &Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		ShippingAddressID: shippingID,
		BillingAddressID:  billingID,
		OrderNumber:       NewOrderNumber(),
		TxRef:             NewTxRef(),
		TotalAmount:       total,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		OrderDate:         time.Now().UTC(),
	}
	if err := s.orders.InsertOrder(ctx, tx, o); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(lines))
	for _, ln := range lines {
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: ln.ProductID,
			UnitPrice: ln.UnitPrice,
			Quantity:  ln.Quantity,
		})
	}
	if err := s.orders.InsertItems(ctx, tx, items); err != nil {
		return nil, err
	}

	for _, ln := range lines {
		if err := s.stock.DecrementStock(ctx, tx, ln.ProductID, ln.Quantity); err != nil {
			if errors.Is(err, product.ErrInsufficientStock) {
				return nil, &StockError{ProductID: ln.ProductID, ProductName: ln.ProductName, Available: ln.Stock}
			}
			return nil, err
		}
	}

	if err := s.carts.ClearItems(ctx, tx, c.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	o.Items = items
	log.Printf("[order] %s creada para user %s, total=%s (%d items)", o.OrderNumber, userID, o.TotalAmount, len(items))
	return o, nil
}
