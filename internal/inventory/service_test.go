package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryRepo struct {
	levels    map[int64]StockLevel
	tenants   map[int64]int64
	movements []LedgerEntry
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		levels:  make(map[int64]StockLevel),
		tenants: make(map[int64]int64),
	}
}

func (r *memoryRepo) addStock(productID, tenantID int64, quantity, lowStock int) {
	r.levels[productID] = StockLevel{ProductID: productID, Quantity: quantity, LowStock: lowStock}
	r.tenants[productID] = tenantID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetAvailability(ctx context.Context, tenantID, productID int64) (StockLevel, error) {
	level, ok := r.levels[productID]
	if !ok || r.tenants[productID] != tenantID {
		return StockLevel{}, ErrStockNotFound
	}
	return level, nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context, tenantID int64) ([]LowStockRow, error) {
	var rows []LowStockRow
	for id, level := range r.levels {
		if r.tenants[id] == tenantID && level.Quantity <= level.LowStock {
			rows = append(rows, LowStockRow{ProductID: id, Quantity: level.Quantity, LowStock: level.LowStock})
		}
	}
	return rows, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	for _, m := range r.movements {
		if m.TenantID == filter.TenantID && m.ProductID == filter.ProductID {
			entries = append(entries, m)
		}
	}
	return entries, nil
}

func (tx *memoryTx) GetStockForUpdate(ctx context.Context, tenantID, productID int64) (StockLevel, error) {
	return tx.repo.GetAvailability(ctx, tenantID, productID)
}

func (tx *memoryTx) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (int64, error) {
	tx.repo.nextID++
	entry.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, entry)
	return entry.ID, nil
}

func (tx *memoryTx) SetStockQuantity(ctx context.Context, productID int64, quantity int) error {
	level, ok := tx.repo.levels[productID]
	if !ok {
		return ErrStockNotFound
	}
	level.Quantity = quantity
	tx.repo.levels[productID] = level
	return nil
}

var testActor = shared.Actor{TenantID: 1, UserID: 7, Role: shared.RoleManager}

func TestAdjustRecordsDelta(t *testing.T) {
	repo := newMemoryRepo()
	repo.addStock(1, 1, 10, 5)
	svc := NewService(repo, nil)

	level, err := svc.Adjust(context.Background(), testActor, AdjustInput{ProductID: 1, NewQuantity: 25, Note: "recount"})
	require.NoError(t, err)
	require.Equal(t, 25, level.Quantity)

	require.Len(t, repo.movements, 1)
	entry := repo.movements[0]
	require.Equal(t, MovementAdjustment, entry.Type)
	require.Equal(t, 15, entry.QuantityDelta)
	require.True(t, strings.HasPrefix(entry.Reference, "ADJ-"))
	require.Equal(t, testActor.UserID, entry.CreatedBy)
}

func TestAdjustDownward(t *testing.T) {
	repo := newMemoryRepo()
	repo.addStock(1, 1, 10, 5)
	svc := NewService(repo, nil)

	level, err := svc.Adjust(context.Background(), testActor, AdjustInput{ProductID: 1, NewQuantity: 4})
	require.NoError(t, err)
	require.Equal(t, 4, level.Quantity)
	require.Equal(t, -6, repo.movements[0].QuantityDelta)
}

func TestAdjustZeroDeltaWritesNothing(t *testing.T) {
	repo := newMemoryRepo()
	repo.addStock(1, 1, 10, 5)
	svc := NewService(repo, nil)

	level, err := svc.Adjust(context.Background(), testActor, AdjustInput{ProductID: 1, NewQuantity: 10})
	require.NoError(t, err)
	require.Equal(t, 10, level.Quantity)
	require.Empty(t, repo.movements)
}

func TestAdjustRejectsNegative(t *testing.T) {
	repo := newMemoryRepo()
	repo.addStock(1, 1, 10, 5)
	svc := NewService(repo, nil)

	_, err := svc.Adjust(context.Background(), testActor, AdjustInput{ProductID: 1, NewQuantity: -1})
	require.ErrorIs(t, err, ErrNegativeQuantity)
	require.Empty(t, repo.movements)
}

func TestAdjustCrossTenant(t *testing.T) {
	repo := newMemoryRepo()
	repo.addStock(1, 2, 10, 5)
	svc := NewService(repo, nil)

	_, err := svc.Adjust(context.Background(), testActor, AdjustInput{ProductID: 1, NewQuantity: 3})
	require.ErrorIs(t, err, ErrStockNotFound)
}

func TestCheckAvailability(t *testing.T) {
	repo := newMemoryRepo()
	repo.addStock(1, 1, 3, 5)
	repo.addStock(2, 1, 50, 5)
	svc := NewService(repo, nil)
	ctx := context.Background()

	avail, err := svc.CheckAvailability(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, avail.LowStock)
	require.NotNil(t, avail.Quantity)
	require.Equal(t, 3, *avail.Quantity)
	require.Equal(t, 5, *avail.Threshold)

	avail, err = svc.CheckAvailability(ctx, 1, 2)
	require.NoError(t, err)
	require.False(t, avail.LowStock)
}

func TestCheckAvailabilityMissingProjection(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	avail, err := svc.CheckAvailability(context.Background(), 1, 404)
	require.NoError(t, err)
	require.False(t, avail.LowStock)
	require.Nil(t, avail.Quantity)
	require.Nil(t, avail.Threshold)
}

func TestCheckAvailabilityTenantScoped(t *testing.T) {
	repo := newMemoryRepo()
	repo.addStock(1, 2, 1, 5)
	svc := NewService(repo, nil)

	avail, err := svc.CheckAvailability(context.Background(), 1, 1)
	require.NoError(t, err)
	require.False(t, avail.LowStock)
	require.Nil(t, avail.Quantity)
}

func TestListMovementsRequiresScope(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.ListMovements(context.Background(), MovementFilter{TenantID: 1})
	require.Error(t, err)

	_, err = svc.ListMovements(context.Background(), MovementFilter{ProductID: 1})
	require.Error(t, err)
}
