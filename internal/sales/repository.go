package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian/internal/inventory"
)

// LockedProduct is a product row captured under row lock at checkout. Price
// is the snapshot the sale is priced at; Quantity is the projection the
// basket is checked against.
type LockedProduct struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Quantity int
	LowStock int
}

// ReceiptData joins a sale with the tenant fields a printed receipt needs.
type ReceiptData struct {
	Sale      Sale
	StoreName string
	Currency  string
}

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a checkout or refund
// transaction. Every stock mutation pairs an AdjustStock call with an
// InsertLedgerEntry call; the transaction boundary keeps them atomic.
type TxRepository interface {
	GetProductsForSale(ctx context.Context, tenantID int64, productIDs []int64) (map[int64]LockedProduct, error)
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	InsertSaleItem(ctx context.Context, item SaleItem) (int64, error)
	InsertLedgerEntry(ctx context.Context, entry inventory.LedgerEntry) (int64, error)
	AdjustStock(ctx context.Context, productID int64, delta int) error
	GetSaleForUpdate(ctx context.Context, tenantID, saleID int64) (Sale, error)
	GetSaleItems(ctx context.Context, saleID int64) ([]SaleItem, error)
	MarkSaleRefunded(ctx context.Context, saleID int64) (time.Time, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction. The
// caller owns retry policy for serialization failures.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
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

// GetSale loads a sale with its items, tenant-scoped.
func (r *Repository) GetSale(ctx context.Context, tenantID, saleID int64) (Sale, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, cashier_id, status, total, created_at, refunded_at
		FROM sales
		WHERE id = $1 AND tenant_id = $2`,
		saleID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrSaleNotFound
		}
		return Sale{}, err
	}
	items, err := querySaleItems(ctx, r.pool, saleID)
	if err != nil {
		return Sale{}, err
	}
	sale.Items = items
	return sale, nil
}

// ListSales returns sales newest first, optionally filtered by status and
// creation window.
func (r *Repository) ListSales(ctx context.Context, filter ListSalesFilter) ([]Sale, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, cashier_id, status, total, created_at, refunded_at
		FROM sales
		WHERE tenant_id = $1
		  AND ($2::text = '' OR status = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		filter.TenantID, string(filter.Status), nullableTime(filter.From), nullableTime(filter.To), limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sale)
	}
	return result, rows.Err()
}

// GetReceiptData loads everything a receipt needs in one round trip pattern:
// sale header with tenant fields, then items.
func (r *Repository) GetReceiptData(ctx context.Context, tenantID, saleID int64) (ReceiptData, error) {
	var data ReceiptData
	row := r.pool.QueryRow(ctx, `
		SELECT s.id, s.tenant_id, s.cashier_id, s.status, s.total, s.created_at, s.refunded_at,
		       t.name, t.currency
		FROM sales s
		JOIN tenants t ON t.id = s.tenant_id
		WHERE s.id = $1 AND s.tenant_id = $2`,
		saleID, tenantID)
	err := row.Scan(&data.Sale.ID, &data.Sale.TenantID, &data.Sale.CashierID, &data.Sale.Status,
		&data.Sale.Total, &data.Sale.CreatedAt, &data.Sale.RefundedAt, &data.StoreName, &data.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReceiptData{}, ErrSaleNotFound
		}
		return ReceiptData{}, err
	}
	items, err := querySaleItems(ctx, r.pool, saleID)
	if err != nil {
		return ReceiptData{}, err
	}
	data.Sale.Items = items
	return data, nil
}

func (r *txRepository) GetProductsForSale(ctx context.Context, tenantID int64, productIDs []int64) (map[int64]LockedProduct, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT p.id, p.name, p.price, sl.quantity, sl.low_stock
		FROM products p
		JOIN stock_levels sl ON sl.product_id = p.id
		WHERE p.tenant_id = $1 AND p.is_active AND p.id = ANY($2)
		ORDER BY p.id
		FOR UPDATE OF sl`,
		tenantID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]LockedProduct, len(productIDs))
	for rows.Next() {
		var p LockedProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.LowStock); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO sales (tenant_id, cashier_id, status, total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		sale.TenantID, sale.CashierID, string(sale.Status), sale.Total).
		Scan(&sale.ID, &sale.CreatedAt)
	return sale, err
}

func (r *txRepository) InsertSaleItem(ctx context.Context, item SaleItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO sale_items (sale_id, product_id, name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		item.SaleID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.LineTotal).
		Scan(&id)
	return id, err
}

func (r *txRepository) InsertLedgerEntry(ctx context.Context, entry inventory.LedgerEntry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movements (tenant_id, product_id, movement_type, quantity_delta, reference, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.TenantID, entry.ProductID, string(entry.Type), entry.QuantityDelta, entry.Reference, entry.CreatedBy).
		Scan(&id)
	return id, err
}

func (r *txRepository) AdjustStock(ctx context.Context, productID int64, delta int) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE stock_levels SET quantity = quantity + $2, updated_at = NOW() WHERE product_id = $1`,
		productID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrStockNotFound
	}
	return nil
}

func (r *txRepository) GetSaleForUpdate(ctx context.Context, tenantID, saleID int64) (Sale, error) {
	sale, err := scanSale(r.tx.QueryRow(ctx, `
		SELECT id, tenant_id, cashier_id, status, total, created_at, refunded_at
		FROM sales
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE`,
		saleID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrSaleNotFound
		}
		return Sale{}, err
	}
	return sale, nil
}

func (r *txRepository) GetSaleItems(ctx context.Context, saleID int64) ([]SaleItem, error) {
	return querySaleItems(ctx, r.tx, saleID)
}

func (r *txRepository) MarkSaleRefunded(ctx context.Context, saleID int64) (time.Time, error) {
	var refundedAt time.Time
	err := r.tx.QueryRow(ctx, `
		UPDATE sales SET status = 'REFUNDED', refunded_at = NOW()
		WHERE id = $1 AND status = 'COMPLETED'
		RETURNING refunded_at`,
		saleID).
		Scan(&refundedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrAlreadyRefunded
		}
		return time.Time{}, err
	}
	return refundedAt, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func querySaleItems(ctx context.Context, q querier, saleID int64) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, sale_id, product_id, name, quantity, unit_price, line_total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id`,
		saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (Sale, error) {
	var sale Sale
	err := row.Scan(&sale.ID, &sale.TenantID, &sale.CashierID, &sale.Status, &sale.Total, &sale.CreatedAt, &sale.RefundedAt)
	return sale, err
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
