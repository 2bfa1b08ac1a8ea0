package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan scans one tenant for products at or below threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskLedgerVerify reconciles stock projections against the movement ledger.
	TaskLedgerVerify = "inventory:ledger_verify"
)

// LowStockScanPayload scopes a scan to one tenant. A zero TenantID scans all.
type LowStockScanPayload struct {
	TenantID int64 `json:"tenant_id"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data, asynq.Queue(QueueDefault)), nil
}

// LedgerVerifyPayload carries scheduling metadata.
type LedgerVerifyPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerVerifyTask constructs an Asynq task.
func NewLedgerVerifyTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerVerifyPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerVerify, data, asynq.Queue(QueueDefault)), nil
}
