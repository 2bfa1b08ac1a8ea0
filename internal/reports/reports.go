package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ZReport is the end-of-day closing summary for one tenant.
type ZReport struct {
	Date          string          `json:"date"`
	GrossRevenue  decimal.Decimal `json:"gross_revenue"`
	RefundedTotal decimal.Decimal `json:"refunded_total"`
	NetRevenue    decimal.Decimal `json:"net_revenue"`
	SalesCount    int             `json:"sales_count"`
	RefundsCount  int             `json:"refunds_count"`
	TopItems      []ZReportItem   `json:"top_items"`
}

// ZReportItem is one product line of the closing summary.
type ZReportItem struct {
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Repository runs the reporting queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) dailyTotals(ctx context.Context, tenantID int64, start, end time.Time) (ZReport, error) {
	var report ZReport
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total) FILTER (WHERE status = 'COMPLETED'), 0),
		       COALESCE(SUM(total) FILTER (WHERE status = 'REFUNDED'), 0),
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COUNT(*) FILTER (WHERE status = 'REFUNDED')
		FROM sales
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`,
		tenantID, start, end).
		Scan(&report.GrossRevenue, &report.RefundedTotal, &report.SalesCount, &report.RefundsCount)
	return report, err
}

func (r *Repository) topItems(ctx context.Context, tenantID int64, start, end time.Time, limit int) ([]ZReportItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT si.name, SUM(si.quantity), SUM(si.line_total)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.tenant_id = $1 AND s.status = 'COMPLETED'
		  AND s.created_at >= $2 AND s.created_at < $3
		GROUP BY si.name
		ORDER BY SUM(si.quantity) DESC
		LIMIT $4`,
		tenantID, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ZReportItem
	for rows.Next() {
		var item ZReportItem
		if err := rows.Scan(&item.ProductName, &item.QuantitySold, &item.Revenue); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const topItemsLimit = 10

// Service assembles reports from repository aggregates.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs Service. now defaults to time.Now.
func NewService(repo *Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// DailyZReport builds the closing summary for the given day. A zero day
// means today. Gross revenue only counts sales still in COMPLETED state, so
// a sale refunded later the same day moves from gross to refunded.
func (s *Service) DailyZReport(ctx context.Context, tenantID int64, day time.Time) (ZReport, error) {
	if day.IsZero() {
		day = s.now().UTC()
	}
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	report, err := s.repo.dailyTotals(ctx, tenantID, start, end)
	if err != nil {
		return ZReport{}, err
	}
	report.Date = start.Format("2006-01-02")
	report.NetRevenue = report.GrossRevenue

	items, err := s.repo.topItems(ctx, tenantID, start, end, topItemsLimit)
	if err != nil {
		return ZReport{}, err
	}
	report.TopItems = items
	return report, nil
}
