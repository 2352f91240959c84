// File: internal/product/repo.go
// Package product provides the catalog repository and the guarded stock
// operations the checkout flow depends on.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/db"
)

var (
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock means the conditional decrement matched no row:
	// either the product vanished or stock_quantity < requested.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Query struct {
	Q      string
	Limit  int
	Offset int
	// IncludeInactive is only honored for admin listings.
	IncludeInactive bool
}

// Reader is the catalog read path; the Redis decorator wraps exactly this.
type Reader interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
}

type Repository interface {
	Reader
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	EnsureSlug(ctx context.Context, name, excludeID string) (string, error)
	Delete(ctx context.Context, id string) (bool, error)
	SetStock(ctx context.Context, id string, qty int) error
	// DecrementStock runs inside the caller's transaction when q is a pgx.Tx.
	DecrementStock(ctx context.Context, q db.Querier, productID string, qty int) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const productCols = `id, name, slug, description, price::text, stock_quantity, sku, image_url, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	var priceText string
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &priceText, &p.StockQuantity,
		&p.SKU, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	p.Price = price
	return &p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slug, err := r.uniqueSlug(ctx, Slugify(p.Name), p.ID)
	if err != nil {
		return err
	}
	p.Slug = slug
	if p.SKU == "" {
		p.SKU = GenerateSKU(p.Name)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO products (id, name, slug, description, price, stock_quantity, sku, image_url, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
	`, p.ID, p.Name, p.Slug, p.Description, p.Price.String(), p.StockQuantity, p.SKU, p.ImageURL, p.IsActive)
	return err
}

// uniqueSlug appends -2, -3, ... until the slug is free, same scheme the
// catalog has always used so old links keep working.
func (r *PGRepo) uniqueSlug(ctx context.Context, base, excludeID string) (string, error) {
	if base == "" {
		base = "product"
	}
	candidate := base
	for i := 2; ; i++ {
		var exists bool
		err := r.db.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM products WHERE slug=$1 AND id<>$2)
		`, candidate, excludeID).Scan(&exists)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productCols+`
		FROM products WHERE id=$1
	`, id))
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *PGRepo) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productCols+`
		FROM products WHERE slug=$1
	`, slug))
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		  AND ($4 OR is_active)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, search, limit, offset, q.IncludeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5,
		    stock_quantity = $6, image_url = $7, is_active = $8,
		    updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Slug, p.Description, p.Price.String(), p.StockQuantity, p.ImageURL, p.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureSlug resolves a free slug for a (possibly renamed) product.
func (r *PGRepo) EnsureSlug(ctx context.Context, name, excludeID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.uniqueSlug(ctx, Slugify(name), excludeID)
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) SetStock(ctx context.Context, id string, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET stock_quantity = $2, updated_at = NOW()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock refuses to go below zero: the WHERE clause makes the
// decrement and the availability check one atomic statement.
func (r *PGRepo) DecrementStock(ctx context.Context, q db.Querier, productID string, qty int) error {
	if q == nil {
		q = r.db
	}
	tag, err := q.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}
