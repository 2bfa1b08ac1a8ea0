package catalog

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/billing"
	"github.com/meridian-pos/meridian/internal/shared"
)

type memStock struct {
	quantity int
	lowStock int
}

type memMovement struct {
	productID int64
	delta     int
	reference string
}

type memoryRepo struct {
	products  map[int64]Product
	skus      map[string]struct{}
	stock     map[int64]memStock
	movements []memMovement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]Product),
		skus:     make(map[string]struct{}),
		stock:    make(map[int64]memStock),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetProduct(ctx context.Context, tenantID, id int64) (ProductWithStock, error) {
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return ProductWithStock{}, shared.ErrNotFound
	}
	result := ProductWithStock{Product: p}
	if s, ok := r.stock[id]; ok {
		qty, low := s.quantity, s.lowStock
		result.Quantity = &qty
		result.LowStock = &low
	}
	return result, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context, tenantID int64) ([]ProductWithStock, error) {
	var result []ProductWithStock
	for id, p := range r.products {
		if p.TenantID != tenantID || !p.IsActive {
			continue
		}
		pws, _ := r.GetProduct(ctx, tenantID, id)
		result = append(result, pws)
	}
	return result, nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, tenantID, id int64, req UpdateProductRequest) error {
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	r.products[id] = p
	return nil
}

func (r *memoryRepo) DeactivateProduct(ctx context.Context, tenantID, id int64) error {
	active := false
	return r.UpdateProduct(ctx, tenantID, id, UpdateProductRequest{IsActive: &active})
}

func (tx *memoryTx) InsertProduct(ctx context.Context, p Product) (Product, error) {
	if _, taken := tx.repo.skus[p.SKU]; taken {
		return Product{}, &pgconn.PgError{Code: "23505"}
	}
	tx.repo.nextID++
	p.ID = tx.repo.nextID
	p.IsActive = true
	tx.repo.products[p.ID] = p
	tx.repo.skus[p.SKU] = struct{}{}
	return p, nil
}

func (tx *memoryTx) InsertStockLevel(ctx context.Context, productID int64, quantity, lowStock int) error {
	tx.repo.stock[productID] = memStock{quantity: quantity, lowStock: lowStock}
	return nil
}

func (tx *memoryTx) InsertInitialMovement(ctx context.Context, tenantID, productID int64, quantity int, createdBy int64) error {
	tx.repo.movements = append(tx.repo.movements, memMovement{productID: productID, delta: quantity, reference: "INIT"})
	return nil
}

var testActor = shared.Actor{TenantID: 1, UserID: 5, Role: shared.RoleOwner}

func TestCreateProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.CreateProduct(context.Background(), testActor, CreateProductRequest{
		Name:            "Espresso",
		SKU:             "COF-001",
		Price:           decimal.RequireFromString("2.50"),
		InitialQuantity: 20,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.IsActive)
	require.NotNil(t, created.Quantity)
	require.Equal(t, 20, *created.Quantity)
	require.Equal(t, 5, *created.LowStock)

	// The initial quantity lands in the ledger too.
	require.Len(t, repo.movements, 1)
	require.Equal(t, 20, repo.movements[0].delta)
}

func TestCreateProductCustomThreshold(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	threshold := 12
	created, err := svc.CreateProduct(context.Background(), testActor, CreateProductRequest{
		Name:            "Sourdough",
		SKU:             "BAK-002",
		Price:           decimal.RequireFromString("5.25"),
		InitialQuantity: 0,
		LowStock:        &threshold,
	})
	require.NoError(t, err)
	require.Equal(t, 12, *created.LowStock)
	require.Empty(t, repo.movements)
}

func TestCreateProductRejectsBadPrice(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.CreateProduct(context.Background(), testActor, CreateProductRequest{
		Name: "Freebie", SKU: "X-1", Price: decimal.Zero,
	})
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.CreateProduct(context.Background(), testActor, CreateProductRequest{
		Name: "Negative", SKU: "X-2", Price: decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, ErrInvalidPrice)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	req := CreateProductRequest{Name: "Espresso", SKU: "COF-001", Price: decimal.RequireFromString("2.50")}
	_, err := svc.CreateProduct(ctx, testActor, req)
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, testActor, req)
	require.ErrorIs(t, err, ErrSKUExists)
}

func TestUpdateProductPriceValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, testActor, CreateProductRequest{
		Name: "Espresso", SKU: "COF-001", Price: decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)

	bad := decimal.Zero
	_, err = svc.UpdateProduct(ctx, testActor, created.ID, UpdateProductRequest{Price: &bad})
	require.ErrorIs(t, err, ErrInvalidPrice)

	good := decimal.RequireFromString("3.00")
	updated, err := svc.UpdateProduct(ctx, testActor, created.ID, UpdateProductRequest{Price: &good})
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(good))
}

func TestDeactivateProductHidesFromListing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, testActor, CreateProductRequest{
		Name: "Espresso", SKU: "COF-001", Price: decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateProduct(ctx, testActor, created.ID))

	listed, err := svc.ListProducts(ctx, testActor.TenantID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestGetProductCrossTenant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, testActor, CreateProductRequest{
		Name: "Espresso", SKU: "COF-001", Price: decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)

	_, err = svc.GetProduct(ctx, 2, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

type fixedLimit struct{ err error }

func (f fixedLimit) EnforceProductLimit(ctx context.Context, tenantID int64) error {
	return f.err
}

func TestCreateProductPlanLimit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, fixedLimit{err: billing.ErrProductLimit}, nil)

	_, err := svc.CreateProduct(context.Background(), testActor, CreateProductRequest{
		Name: "Espresso", SKU: "COF-001", Price: decimal.RequireFromString("2.50"),
	})
	require.ErrorIs(t, err, billing.ErrProductLimit)
	require.Empty(t, repo.products)
}
