package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service. The
// projection mutation and the ledger write always travel together inside one
// callback.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, tenantID, productID int64) (StockLevel, error)
	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (int64, error)
	SetStockQuantity(ctx context.Context, productID int64, quantity int) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
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

// GetAvailability reads the projection for one product, tenant-scoped.
func (r *Repository) GetAvailability(ctx context.Context, tenantID, productID int64) (StockLevel, error) {
	var level StockLevel
	err := r.pool.QueryRow(ctx, `
		SELECT sl.product_id, sl.quantity, sl.low_stock, sl.updated_at
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		WHERE sl.product_id = $1 AND p.tenant_id = $2`,
		productID, tenantID).
		Scan(&level.ProductID, &level.Quantity, &level.LowStock, &level.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{}, ErrStockNotFound
		}
		return StockLevel{}, err
	}
	return level, nil
}

// ListLowStock returns active products at or below their threshold.
func (r *Repository) ListLowStock(ctx context.Context, tenantID int64) ([]LowStockRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.sku, sl.quantity, sl.low_stock
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		WHERE p.tenant_id = $1 AND p.is_active AND sl.quantity <= sl.low_stock
		ORDER BY sl.quantity ASC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LowStockRow
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.SKU, &row.Quantity, &row.LowStock); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ListMovements returns ledger entries newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]LedgerEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, product_id, movement_type, quantity_delta, reference, created_by, created_at
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at DESC
		LIMIT $5`,
		filter.TenantID, filter.ProductID, nullableTime(filter.From), nullableTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ProductID, &e.Type, &e.QuantityDelta, &e.Reference, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, tenantID, productID int64) (StockLevel, error) {
	var level StockLevel
	err := r.tx.QueryRow(ctx, `
		SELECT sl.product_id, sl.quantity, sl.low_stock, sl.updated_at
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		WHERE sl.product_id = $1 AND p.tenant_id = $2
		FOR UPDATE OF sl`,
		productID, tenantID).
		Scan(&level.ProductID, &level.Quantity, &level.LowStock, &level.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{}, ErrStockNotFound
		}
		return StockLevel{}, err
	}
	return level, nil
}

func (r *txRepository) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movements (tenant_id, product_id, movement_type, quantity_delta, reference, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.TenantID, entry.ProductID, string(entry.Type), entry.QuantityDelta, entry.Reference, entry.CreatedBy).
		Scan(&id)
	return id, err
}

func (r *txRepository) SetStockQuantity(ctx context.Context, productID int64, quantity int) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE stock_levels SET quantity = $2, updated_at = NOW() WHERE product_id = $1`,
		productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
