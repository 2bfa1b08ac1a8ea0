// Package tenants exposes the current store profile. It is deliberately
// thin; the transaction engine only ever consumes the tenant id from the
// actor context.
package tenants

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/shared"
)

// Tenant is a registered store.
type Tenant struct {
	ID        int64
	Name      string
	Slug      string
	Currency  string
	CreatedAt time.Time
}

// TenantView is the API-safe projection.
type TenantView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateTenantRequest carries mutable profile fields.
type UpdateTenantRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Currency *string `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// Repository persists tenants in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads a tenant by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, currency, created_at FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Currency, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update applies profile changes and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateTenantRequest) (*Tenant, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Currency != nil {
		existing.Currency = *req.Currency
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, currency = $3, updated_at = NOW() WHERE id = $1`,
		id, existing.Name, existing.Currency)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func viewOf(t *Tenant) TenantView {
	return TenantView{
		ID:        strconv.FormatInt(t.ID, 10),
		Name:      t.Name,
		Slug:      t.Slug,
		Currency:  t.Currency,
		CreatedAt: t.CreatedAt,
	}
}
