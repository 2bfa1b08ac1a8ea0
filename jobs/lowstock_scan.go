package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/shared"
)

// LowStockScanJob logs every product at or below its threshold. Enqueued
// after checkouts that leave stock low and nightly by the scheduler.
type LowStockScanJob struct {
	Pool   *pgxpool.Pool
	Audit  *shared.AuditLogger
	Logger *slog.Logger
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT p.tenant_id, p.id, p.name, p.sku, sl.quantity, sl.low_stock
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		WHERE p.is_active AND sl.quantity <= sl.low_stock
		  AND ($1 = 0 OR p.tenant_id = $1)
		ORDER BY p.tenant_id, sl.quantity ASC`,
		payload.TenantID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type flagged struct {
		tenantID, productID int64
		name, sku           string
		quantity, threshold int
	}
	var hits []flagged
	for rows.Next() {
		var f flagged
		if err := rows.Scan(&f.tenantID, &f.productID, &f.name, &f.sku, &f.quantity, &f.threshold); err != nil {
			return err
		}
		hits = append(hits, f)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, f := range hits {
		j.Logger.WarnContext(ctx, "product low on stock",
			"tenant_id", f.tenantID,
			"product_id", f.productID,
			"name", f.name,
			"sku", f.sku,
			"quantity", f.quantity,
			"threshold", f.threshold,
		)
		if j.Audit == nil {
			continue
		}
		err := j.Audit.Record(ctx, shared.AuditLog{
			TenantID: f.tenantID,
			Action:   "inventory:low_stock",
			Entity:   "product",
			EntityID: strconv.FormatInt(f.productID, 10),
			Meta: map[string]any{
				"sku":       f.sku,
				"quantity":  f.quantity,
				"threshold": f.threshold,
			},
		})
		if err != nil {
			j.Logger.ErrorContext(ctx, "record low stock audit entry", slog.Any("error", err))
		}
	}
	j.Logger.InfoContext(ctx, "low stock scan finished", "tenant_id", payload.TenantID, "flagged", len(hits))
	return nil
}
