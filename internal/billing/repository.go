package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads subscriptions and the counters the plan limits cap.
type Repository interface {
	GetSubscription(ctx context.Context, tenantID int64) (Subscription, error)
	CountUsers(ctx context.Context, tenantID int64) (int, error)
	CountActiveProducts(ctx context.Context, tenantID int64) (int, error)
}

// PGRepository reads billing state from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) GetSubscription(ctx context.Context, tenantID int64) (Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx, `
		SELECT s.tenant_id, s.status, s.start_date, s.end_date,
		       p.id, p.name, p.price, p.duration_days, p.max_users, p.max_products, p.allow_reports
		FROM tenant_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.tenant_id = $1`, tenantID).
		Scan(&sub.TenantID, &sub.Status, &sub.StartDate, &sub.EndDate,
			&sub.Plan.ID, &sub.Plan.Name, &sub.Plan.Price, &sub.Plan.DurationDays,
			&sub.Plan.MaxUsers, &sub.Plan.MaxProducts, &sub.Plan.AllowReports)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrNoSubscription
		}
		return Subscription{}, err
	}
	return sub, nil
}

func (r *PGRepository) CountUsers(ctx context.Context, tenantID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&count)
	return count, err
}

func (r *PGRepository) CountActiveProducts(ctx context.Context, tenantID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE tenant_id = $1 AND is_active`, tenantID).Scan(&count)
	return count, err
}
