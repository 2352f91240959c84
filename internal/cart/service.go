// File: internal/cart/service.go
package cart

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeMC777/tienda-api/internal/db"
	"github.com/MikeMC777/tienda-api/internal/product"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product out of stock")
)

// ProductReader is the slice of the catalog the cart needs. It must be the
// uncached repo: stock decisions cannot ride a stale cache entry.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

type Service struct {
	store    Store
	q        db.Querier
	txb      db.TxBeginner
	products ProductReader
}

func NewService(store Store, q db.Querier, txb db.TxBeginner, products ProductReader) *Service {
	return &Service{store: store, q: q, txb: txb, products: products}
}

// GetOrCreate resolves the caller's cart, creating an empty one on first
// access. userID wins when both identifiers are present.
func (s *Service) GetOrCreate(ctx context.Context, userID, sessionID string) (*Cart, error) {
	var (
		c   *Cart
		err error
	)
	if userID != "" {
		c, err = s.store.GetByUser(ctx, s.q, userID)
	} else {
		c, err = s.store.GetBySession(ctx, s.q, sessionID)
	}
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	c = &Cart{ID: uuid.NewString()}
	if userID != "" {
		c.UserID = &userID
	} else {
		c.SessionID = &sessionID
	}
	if err := s.store.Create(ctx, s.q, c); err != nil {
		// carrera con otra primera request: el UNIQUE ya insertó el carrito
		if userID != "" {
			return s.store.GetByUser(ctx, s.q, userID)
		}
		return s.store.GetBySession(ctx, s.q, sessionID)
	}
	return c, nil
}

// AddItem validates the product against live stock and accumulates the
// quantity onto an existing line for the same product.
func (s *Service) AddItem(ctx context.Context, c *Cart, productID string, qty int) (*Item, error) {
	if qty < 1 {
		return nil, errors.New("quantity must be >= 1")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	if p.StockQuantity < qty {
		return nil, ErrOutOfStock
	}

	it := &Item{
		ID:        uuid.NewString(),
		CartID:    c.ID,
		ProductID: productID,
		Quantity:  qty,
	}
	if err := s.store.UpsertItem(ctx, s.q, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) UpdateItem(ctx context.Context, c *Cart, itemID string, qty int) error {
	if qty < 1 {
		return errors.New("quantity must be >= 1")
	}
	ok, err := s.store.SetQuantity(ctx, s.q, c.ID, itemID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, c *Cart, itemID string) error {
	ok, err := s.store.DeleteItem(ctx, s.q, c.ID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func (s *Service) Details(ctx context.Context, c *Cart) (*Details, error) {
	items, err := s.store.ItemsDetailed(ctx, s.q, c.ID)
	if err != nil {
		return nil, err
	}

	d := &Details{ID: c.ID, Items: items}
	for _, it := range items {
		d.Subtotal = d.Subtotal.Add(it.Subtotal)
		d.TotalItems += it.Quantity
	}
	if d.Items == nil {
		d.Items = []ItemDetail{}
	}
	return d, nil
}

// Merge folds the anonymous session cart into the user's cart:
//  1. no anonymous cart: nothing to do (this makes retries no-ops)
//  2. no user cart yet: re-key the anonymous cart, no line copying
//  3. both exist: add quantities per product, then drop the anonymous cart
//
// Both carts stay locked until commit so concurrent line additions are not
// lost halfway through.
func (s *Service) Merge(ctx context.Context, userID, sessionID string) error {
	tx, err := s.txb.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	anon, err := s.store.LockBySession(ctx, tx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	userCart, err := s.store.LockByUser(ctx, tx, userID)
	if errors.Is(err, ErrCartNotFound) {
		if err := s.store.Rekey(ctx, tx, anon.ID, userID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
	if err != nil {
		return err
	}

	items, err := s.store.Items(ctx, tx, anon.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		moved := &Item{
			ID:        uuid.NewString(),
			CartID:    userCart.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
		if err := s.store.UpsertItem(ctx, tx, moved); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, tx, anon.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Printf("[cart] merged session cart %s into user %s (%d lines)", anon.ID, userID, len(items))
	return nil
}
