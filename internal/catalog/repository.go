package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/shared"
)

// Repository persists the product catalog in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	InsertProduct(ctx context.Context, p Product) (Product, error)
	InsertStockLevel(ctx context.Context, productID int64, quantity, lowStock int) error
	InsertInitialMovement(ctx context.Context, tenantID, productID int64, quantity int, createdBy int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const productWithStockQuery = `
	SELECT p.id, p.tenant_id, p.name, p.sku, p.price, p.is_active, p.created_at,
	       sl.quantity, sl.low_stock
	FROM products p
	LEFT JOIN stock_levels sl ON sl.product_id = p.id`

func scanProductWithStock(row pgx.Row) (ProductWithStock, error) {
	var p ProductWithStock
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU, &p.Price, &p.IsActive, &p.CreatedAt,
		&p.Quantity, &p.LowStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductWithStock{}, shared.ErrNotFound
		}
		return ProductWithStock{}, err
	}
	return p, nil
}

// GetProduct loads one product in-tenant.
func (r *Repository) GetProduct(ctx context.Context, tenantID, id int64) (ProductWithStock, error) {
	row := r.pool.QueryRow(ctx,
		productWithStockQuery+` WHERE p.id = $1 AND p.tenant_id = $2`, id, tenantID)
	return scanProductWithStock(row)
}

// ListProducts lists the tenant's active products, newest first.
func (r *Repository) ListProducts(ctx context.Context, tenantID int64) ([]ProductWithStock, error) {
	rows, err := r.pool.Query(ctx,
		productWithStockQuery+` WHERE p.tenant_id = $1 AND p.is_active ORDER BY p.created_at DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []ProductWithStock
	for rows.Next() {
		p, err := scanProductWithStock(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct applies catalog field changes in-tenant. NULL arguments keep
// the current value.
func (r *Repository) UpdateProduct(ctx context.Context, tenantID, id int64, req UpdateProductRequest) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = COALESCE($3, name),
		    price = COALESCE($4, price),
		    is_active = COALESCE($5, is_active)
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, req.Name, req.Price, req.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeactivateProduct soft-deletes a product.
func (r *Repository) DeactivateProduct(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET is_active = FALSE WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertProduct(ctx context.Context, p Product) (Product, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO products (tenant_id, name, sku, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at`,
		p.TenantID, p.Name, p.SKU, p.Price).
		Scan(&p.ID, &p.IsActive, &p.CreatedAt)
	return p, err
}

func (r *txRepository) InsertStockLevel(ctx context.Context, productID int64, quantity, lowStock int) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_levels (product_id, quantity, low_stock)
		VALUES ($1, $2, $3)`,
		productID, quantity, lowStock)
	return err
}

// InsertInitialMovement seeds the ledger so the sum of deltas equals the
// projection from the first row on.
func (r *txRepository) InsertInitialMovement(ctx context.Context, tenantID, productID int64, quantity int, createdBy int64) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_movements (tenant_id, product_id, movement_type, quantity_delta, reference, created_by)
		VALUES ($1, $2, 'ADJUSTMENT', $3, $4, $5)`,
		tenantID, productID, quantity, fmt.Sprintf("INIT-%d", productID), createdBy)
	return err
}
