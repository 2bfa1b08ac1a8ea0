package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerVerifyJob reconciles every stock projection against the sum of its
// movement deltas. The two are written in the same transaction, so any drift
// means a bug or manual tampering and is worth waking someone up for.
type LedgerVerifyJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// Handle processes TaskLedgerVerify tasks.
func (j *LedgerVerifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerVerifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT p.tenant_id, sl.product_id, sl.quantity, COALESCE(SUM(sm.quantity_delta), 0) AS ledger_sum
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		LEFT JOIN stock_movements sm ON sm.product_id = sl.product_id
		GROUP BY p.tenant_id, sl.product_id, sl.quantity
		HAVING sl.quantity <> COALESCE(SUM(sm.quantity_delta), 0)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	drifted := 0
	for rows.Next() {
		var (
			tenantID, productID int64
			projection          int
			ledgerSum           int64
		)
		if err := rows.Scan(&tenantID, &productID, &projection, &ledgerSum); err != nil {
			return err
		}
		drifted++
		j.Logger.ErrorContext(ctx, "stock projection drifted from ledger",
			"tenant_id", tenantID,
			"product_id", productID,
			"projection", projection,
			"ledger_sum", ledgerSum,
		)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if drifted > 0 {
		return fmt.Errorf("ledger verification found %d drifted projections", drifted)
	}
	j.Logger.InfoContext(ctx, "ledger verification clean")
	return nil
}
