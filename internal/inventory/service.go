package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetAvailability(ctx context.Context, tenantID, productID int64) (StockLevel, error)
	ListLowStock(ctx context.Context, tenantID int64) ([]LowStockRow, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]LedgerEntry, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates inventory reads and manual adjustments. Sales and
// refunds mutate the same tables but do so through the transaction engine.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Adjust sets a product's quantity to an absolute value. The delta against
// the locked projection is recorded as an ADJUSTMENT ledger entry in the
// same atomic unit; a zero delta writes nothing.
func (s *Service) Adjust(ctx context.Context, actor shared.Actor, input AdjustInput) (StockLevel, error) {
	if input.ProductID == 0 {
		return StockLevel{}, errors.New("inventory: product required")
	}
	if input.NewQuantity < 0 {
		return StockLevel{}, ErrNegativeQuantity
	}

	var (
		updated StockLevel
		delta   int
	)
	reference := fmt.Sprintf("ADJ-%s", uuid.NewString())
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.GetStockForUpdate(ctx, actor.TenantID, input.ProductID)
		if err != nil {
			return err
		}
		delta = input.NewQuantity - level.Quantity
		if delta == 0 {
			updated = level
			return nil
		}
		entry := LedgerEntry{
			TenantID:      actor.TenantID,
			ProductID:     input.ProductID,
			Type:          MovementAdjustment,
			QuantityDelta: delta,
			Reference:     reference,
			CreatedBy:     actor.UserID,
		}
		if _, err := tx.InsertLedgerEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.SetStockQuantity(ctx, input.ProductID, input.NewQuantity); err != nil {
			return err
		}
		level.Quantity = input.NewQuantity
		updated = level
		return nil
	})
	if err != nil {
		return StockLevel{}, err
	}

	if s.audit != nil && delta != 0 {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: actor.TenantID,
			ActorID:  actor.UserID,
			Action:   "inventory:adjust",
			Entity:   "stock_level",
			EntityID: fmt.Sprintf("%d", input.ProductID),
			Meta: map[string]any{
				"delta":     delta,
				"quantity":  input.NewQuantity,
				"reference": reference,
				"note":      input.Note,
			},
		})
	}
	return updated, nil
}

// CheckAvailability reports whether the product sits at or below its
// threshold. A missing projection reports low_stock=false with no counters.
func (s *Service) CheckAvailability(ctx context.Context, tenantID, productID int64) (Availability, error) {
	level, err := s.repo.GetAvailability(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, ErrStockNotFound) {
			return Availability{LowStock: false}, nil
		}
		return Availability{}, err
	}
	qty := level.Quantity
	threshold := level.LowStock
	return Availability{
		LowStock:  level.Quantity <= level.LowStock,
		Quantity:  &qty,
		Threshold: &threshold,
	}, nil
}

// ListLowStock lists active products at or below their threshold.
func (s *Service) ListLowStock(ctx context.Context, tenantID int64) ([]LowStockRow, error) {
	return s.repo.ListLowStock(ctx, tenantID)
}

// ListMovements lists the ledger for one product.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]LedgerEntry, error) {
	if filter.TenantID == 0 || filter.ProductID == 0 {
		return nil, errors.New("inventory: tenant and product required")
	}
	return s.repo.ListMovements(ctx, filter)
}
