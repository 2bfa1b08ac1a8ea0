package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SalesToday aggregates the tenant's completed sales for one day.
type SalesToday struct {
	Revenue  decimal.Decimal
	Count    int
	Refunds  int
	LastSale *time.Time
}

// Repository runs the dashboard aggregate queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SalesForDay aggregates sales created within [day, day+24h). Refunded sales
// contribute to the refund count but not to revenue.
func (r *Repository) SalesForDay(ctx context.Context, tenantID int64, day time.Time) (SalesToday, error) {
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	var result SalesToday
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total) FILTER (WHERE status = 'COMPLETED'), 0),
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COUNT(*) FILTER (WHERE status = 'REFUNDED'),
		       MAX(created_at)
		FROM sales
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`,
		tenantID, start, end).
		Scan(&result.Revenue, &result.Count, &result.Refunds, &result.LastSale)
	return result, err
}

// LowStockCount counts active products at or below their threshold.
func (r *Repository) LowStockCount(ctx context.Context, tenantID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		WHERE p.tenant_id = $1 AND p.is_active AND sl.quantity <= sl.low_stock`,
		tenantID).
		Scan(&count)
	return count, err
}

// ActiveProductCount counts the tenant's sellable products.
func (r *Repository) ActiveProductCount(ctx context.Context, tenantID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products WHERE tenant_id = $1 AND is_active`,
		tenantID).
		Scan(&count)
	return count, err
}
