package inventory

import (
	"errors"
	"time"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	MovementSale       MovementType = "SALE"
	MovementReturn     MovementType = "RETURN"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// LedgerEntry is an immutable stock movement fact. Entries are created,
// never updated or deleted; the sum of deltas for a product plus its initial
// quantity must always equal the projection.
type LedgerEntry struct {
	ID            int64
	TenantID      int64
	ProductID     int64
	Type          MovementType
	QuantityDelta int
	Reference     string
	CreatedBy     int64
	CreatedAt     time.Time
}

// StockLevel is the current-quantity projection, one row per product. Only
// transactional code paths that also write a ledger entry may mutate it.
type StockLevel struct {
	ProductID int64
	Quantity  int
	LowStock  int
	UpdatedAt time.Time
}

// Availability is the fast-path read used by dashboards and POS clients.
// Quantity and Threshold stay nil when the product has no projection.
type Availability struct {
	LowStock  bool `json:"low_stock"`
	Quantity  *int `json:"quantity,omitempty"`
	Threshold *int `json:"threshold,omitempty"`
}

// LowStockRow is a projection joined with its product for listings.
type LowStockRow struct {
	ProductID int64
	Name      string
	SKU       string
	Quantity  int
	LowStock  int
}

// AdjustInput sets a product's quantity to an absolute value. The delta to
// the current projection is recorded as an ADJUSTMENT ledger entry.
type AdjustInput struct {
	ProductID   int64
	NewQuantity int
	Note        string
}

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	TenantID  int64
	ProductID int64
	From      time.Time
	To        time.Time
	Limit     int
}

var (
	// ErrStockNotFound indicates the product has no projection in-tenant.
	ErrStockNotFound = errors.New("stock level not found")
	// ErrNegativeQuantity rejects adjustments below zero.
	ErrNegativeQuantity = errors.New("stock quantity cannot be negative")
)
