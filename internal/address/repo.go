// Package address stores the user-owned shipping/billing addresses that
// orders reference read-only.
package address

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/tienda-api/internal/db"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	Create(ctx context.Context, a *Address) error
	GetByID(ctx context.Context, id string) (*Address, error)
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	// BelongsTo reports whether the address exists and is owned by the user.
	// It takes a Querier so checkout can run it inside its transaction.
	BelongsTo(ctx context.Context, q db.Querier, addressID, userID string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, a *Address) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO addresses (id, user_id, type, street, city, state, postal_code, country, is_default, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
	`, a.ID, a.UserID, a.Type, a.Street, a.City, a.State, a.PostalCode, a.Country, a.IsDefault)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, type, street, city, state, postal_code, country, is_default, created_at, updated_at
		FROM addresses WHERE id=$1
	`, id)
	var a Address
	if err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, street, city, state, postal_code, country, is_default, created_at, updated_at
		FROM addresses WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepo) BelongsTo(ctx context.Context, q db.Querier, addressID, userID string) (bool, error) {
	if q == nil {
		q = r.db
	}
	var one int
	err := q.QueryRow(ctx, `
		SELECT 1 FROM addresses WHERE id=$1 AND user_id=$2
	`, addressID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
