package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Repository abstracts user persistence for the service.
type Repository interface {
	FindUsersByEmail(ctx context.Context, email string) ([]*User, error)
	FindUserByStoreAndEmail(ctx context.Context, slug, email string) (*User, error)
	FindUserByID(ctx context.Context, tenantID, id int64) (*User, error)
	CreateTenantWithOwner(ctx context.Context, storeName, slug, currency string, owner User) (*User, error)
}

// PGRepository persists users in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, tenant_id, email, full_name, password_hash, role, is_active, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindUsersByEmail returns every account registered under the email across
// tenants. Emails are only unique per store.
func (r *PGRepository) FindUsersByEmail(ctx context.Context, email string) ([]*User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 ORDER BY id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
		if err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// FindUserByStoreAndEmail resolves an account scoped to one store slug.
func (r *PGRepository) FindUserByStoreAndEmail(ctx context.Context, slug, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT u.id, u.tenant_id, u.email, u.full_name, u.password_hash, u.role, u.is_active, u.created_at
		 FROM users u
		 JOIN tenants t ON t.id = u.tenant_id
		 WHERE t.slug = $1 AND u.email = $2`, slug, email)
	return scanUser(row)
}

func (r *PGRepository) FindUserByID(ctx context.Context, tenantID, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return scanUser(row)
}

// CreateTenantWithOwner inserts the tenant, its OWNER account, and the trial
// subscription in one transaction, so a half-registered store can never
// exist. A taken slug surfaces as ErrSlugTaken.
func (r *PGRepository) CreateTenantWithOwner(ctx context.Context, storeName, slug, currency string, owner User) (*User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tenantID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO tenants (name, slug, currency) VALUES ($1, $2, $3) RETURNING id`,
		storeName, slug, currency).Scan(&tenantID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	owner.TenantID = tenantID
	owner.Role = shared.RoleOwner
	owner.IsActive = true
	row := tx.QueryRow(ctx,
		`INSERT INTO users (tenant_id, email, full_name, password_hash, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		owner.TenantID, owner.Email, owner.FullName, owner.PasswordHash, owner.Role, owner.IsActive)
	created, err := scanUser(row)
	if err != nil {
		return nil, err
	}

	var planID int64
	var trialDays int
	err = tx.QueryRow(ctx,
		`SELECT id, duration_days FROM subscription_plans WHERE name = 'Starter'`).
		Scan(&planID, &trialDays)
	if err != nil {
		return nil, fmt.Errorf("starter plan missing, apply scripts/schema: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO tenant_subscriptions (tenant_id, plan_id, status, start_date, end_date)
		 VALUES ($1, $2, 'TRIAL', NOW(), NOW() + make_interval(days => $3))`,
		tenantID, planID, trialDays)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}
