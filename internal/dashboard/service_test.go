package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	sales    SalesToday
	lowStock int
	products int
	calls    int
}

func (f *fakeRepo) SalesForDay(ctx context.Context, tenantID int64, day time.Time) (SalesToday, error) {
	f.calls++
	return f.sales, nil
}

func (f *fakeRepo) LowStockCount(ctx context.Context, tenantID int64) (int, error) {
	return f.lowStock, nil
}

func (f *fakeRepo) ActiveProductCount(ctx context.Context, tenantID int64) (int, error) {
	return f.products, nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestGetKPIs(t *testing.T) {
	lastSale := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	repo := &fakeRepo{
		sales:    SalesToday{Revenue: decimal.RequireFromString("123.45"), Count: 7, Refunds: 1, LastSale: &lastSale},
		lowStock: 2,
		products: 15,
	}
	svc := NewService(repo, newTestCache(t), nil)

	summary, err := svc.GetKPIs(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, summary.TodayRevenue.Equal(decimal.RequireFromString("123.45")))
	require.Equal(t, 7, summary.TodaySales)
	require.Equal(t, 1, summary.TodayRefunds)
	require.Equal(t, 2, summary.LowStockCount)
	require.Equal(t, 15, summary.ActiveProducts)
	require.NotNil(t, summary.LastSaleAt)
	require.True(t, summary.LastSaleAt.Equal(lastSale))
}

func TestGetKPIsServedFromCache(t *testing.T) {
	repo := &fakeRepo{sales: SalesToday{Revenue: decimal.Zero}}
	svc := NewService(repo, newTestCache(t), nil)
	ctx := context.Background()

	_, err := svc.GetKPIs(ctx, 1)
	require.NoError(t, err)
	_, err = svc.GetKPIs(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
}

func TestInvalidateBumpsVersion(t *testing.T) {
	repo := &fakeRepo{sales: SalesToday{Revenue: decimal.Zero}}
	svc := NewService(repo, newTestCache(t), nil)
	ctx := context.Background()

	_, err := svc.GetKPIs(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.GetKPIs(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestGetKPIsTenantsDoNotShareCache(t *testing.T) {
	repo := &fakeRepo{sales: SalesToday{Revenue: decimal.Zero}}
	svc := NewService(repo, newTestCache(t), nil)
	ctx := context.Background()

	_, err := svc.GetKPIs(ctx, 1)
	require.NoError(t, err)
	_, err = svc.GetKPIs(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestGetKPIsWithoutCache(t *testing.T) {
	repo := &fakeRepo{sales: SalesToday{Count: 3, Revenue: decimal.Zero}}
	svc := NewService(repo, nil, nil)

	summary, err := svc.GetKPIs(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 3, summary.TodaySales)
}
