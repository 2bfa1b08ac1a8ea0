package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// KPISummary contains the indicators surfaced on the POS dashboard.
type KPISummary struct {
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	TodaySales     int             `json:"today_sales"`
	TodayRefunds   int             `json:"today_refunds"`
	LowStockCount  int             `json:"low_stock_count"`
	ActiveProducts int             `json:"active_products"`
	LastSaleAt     *time.Time      `json:"last_sale_at,omitempty"`
}

// RepositoryPort abstracts the aggregate queries.
type RepositoryPort interface {
	SalesForDay(ctx context.Context, tenantID int64, day time.Time) (SalesToday, error)
	LowStockCount(ctx context.Context, tenantID int64) (int, error)
	ActiveProductCount(ctx context.Context, tenantID int64) (int, error)
}

// Service resolves dashboard KPIs with cache-aware lookups.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	now   func() time.Time
}

// NewService constructs Service. now defaults to time.Now.
func NewService(repo RepositoryPort, cache *Cache, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, cache: cache, now: now}
}

// GetKPIs resolves today's KPI card for the tenant. The three aggregates run
// concurrently; the combined result is cached under a versioned key.
func (s *Service) GetKPIs(ctx context.Context, tenantID int64) (KPISummary, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		var (
			sales    SalesToday
			lowStock int
			products int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			sales, err = s.repo.SalesForDay(gctx, tenantID, s.now().UTC())
			return err
		})
		g.Go(func() error {
			var err error
			lowStock, err = s.repo.LowStockCount(gctx, tenantID)
			return err
		})
		g.Go(func() error {
			var err error
			products, err = s.repo.ActiveProductCount(gctx, tenantID)
			return err
		})
		if err := g.Wait(); err != nil {
			return KPISummary{}, err
		}
		return KPISummary{
			TodayRevenue:   sales.Revenue,
			TodaySales:     sales.Count,
			TodayRefunds:   sales.Refunds,
			LowStockCount:  lowStock,
			ActiveProducts: products,
			LastSaleAt:     sales.LastSale,
		}, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return KPISummary{}, err
		}
		return value.(KPISummary), nil
	}

	key, err := s.cache.BuildKey(ctx, tenantID, "kpi")
	if err != nil {
		return KPISummary{}, err
	}
	var summary KPISummary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return KPISummary{}, err
	}
	return summary, nil
}

// Invalidate drops cached dashboard entries after a write.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
