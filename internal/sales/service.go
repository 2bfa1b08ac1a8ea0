package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/meridian-pos/meridian/internal/inventory"
	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, tenantID, saleID int64) (Sale, error)
	ListSales(ctx context.Context, filter ListSalesFilter) ([]Sale, error)
	GetReceiptData(ctx context.Context, tenantID, saleID int64) (ReceiptData, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// TaskEnqueuer hands work to the background queue. Nil is valid; enqueue
// failures never fail the sale.
type TaskEnqueuer interface {
	EnqueueLowStockScan(ctx context.Context, tenantID int64) error
}

// Service implements the checkout engine.
type Service struct {
	repo          RepositoryPort
	audit         AuditPort
	tasks         TaskEnqueuer
	logger        *slog.Logger
	retryAttempts int
}

// NewService constructs Service. retryAttempts bounds how many times a
// serialization failure is retried before surfacing a conflict.
func NewService(repo RepositoryPort, audit AuditPort, tasks TaskEnqueuer, logger *slog.Logger, retryAttempts int) *Service {
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	return &Service{repo: repo, audit: audit, tasks: tasks, logger: logger, retryAttempts: retryAttempts}
}

// CreateSale runs a checkout atomically: it locks the affected stock rows,
// validates every line against the locked quantities, then writes the sale,
// its items, one SALE ledger entry per line, and the projection updates in a
// single transaction. Either everything commits or nothing does.
func (s *Service) CreateSale(ctx context.Context, actor shared.Actor, input CreateSaleInput) (Sale, error) {
	if len(input.Lines) == 0 {
		return Sale{}, ErrEmptyBasket
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return Sale{}, ErrInvalidQuantity
		}
	}
	productIDs := distinctProductIDs(input.Lines)

	var (
		sale        Sale
		lowStockHit bool
	)
	err := s.withRetry(ctx, func(ctx context.Context, tx TxRepository) error {
		sale = Sale{}
		lowStockHit = false

		products, err := tx.GetProductsForSale(ctx, actor.TenantID, productIDs)
		if err != nil {
			return err
		}

		// The same product may appear on several lines; remaining tracks
		// quantity across them so their combined demand is what gets checked.
		remaining := make(map[int64]int, len(products))
		total := decimal.Zero
		for _, line := range input.Lines {
			product, ok := products[line.ProductID]
			if !ok {
				return ErrInvalidProduct
			}
			if _, seen := remaining[line.ProductID]; !seen {
				remaining[line.ProductID] = product.Quantity
			}
			if remaining[line.ProductID] < line.Quantity {
				return ErrInsufficientStock
			}
			remaining[line.ProductID] -= line.Quantity
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		sale, err = tx.InsertSale(ctx, Sale{
			TenantID:  actor.TenantID,
			CashierID: actor.UserID,
			Status:    StatusCompleted,
			Total:     total,
		})
		if err != nil {
			return err
		}
		reference := fmt.Sprintf("SALE-%d", sale.ID)

		for _, line := range input.Lines {
			product := products[line.ProductID]
			item := SaleItem{
				SaleID:    sale.ID,
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				LineTotal: product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
			}
			if item.ID, err = tx.InsertSaleItem(ctx, item); err != nil {
				return err
			}
			if _, err = tx.InsertLedgerEntry(ctx, inventory.LedgerEntry{
				TenantID:      actor.TenantID,
				ProductID:     product.ID,
				Type:          inventory.MovementSale,
				QuantityDelta: -line.Quantity,
				Reference:     reference,
				CreatedBy:     actor.UserID,
			}); err != nil {
				return err
			}
			if err = tx.AdjustStock(ctx, product.ID, -line.Quantity); err != nil {
				return err
			}
			sale.Items = append(sale.Items, item)
		}

		for id, qty := range remaining {
			if qty <= products[id].LowStock {
				lowStockHit = true
			}
		}
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: actor.TenantID,
			ActorID:  actor.UserID,
			Action:   "sales:create",
			Entity:   "sale",
			EntityID: strconv.FormatInt(sale.ID, 10),
			Meta: map[string]any{
				"total": sale.Total.String(),
				"items": len(sale.Items),
			},
		})
	}
	if lowStockHit && s.tasks != nil {
		if err := s.tasks.EnqueueLowStockScan(ctx, actor.TenantID); err != nil {
			s.logger.WarnContext(ctx, "enqueue low stock scan failed", "error", err)
		}
	}
	return sale, nil
}

// RefundSale reverses a completed sale in full. Each item gets a RETURN
// ledger entry restocking its quantity, the projection is restored, and the
// sale flips to REFUNDED. The sale row lock serializes concurrent refund
// attempts; the loser sees the REFUNDED status and fails.
func (s *Service) RefundSale(ctx context.Context, actor shared.Actor, saleID int64) (RefundResult, error) {
	var result RefundResult
	err := s.withRetry(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, actor.TenantID, saleID)
		if err != nil {
			return err
		}
		if sale.Status == StatusRefunded {
			return ErrAlreadyRefunded
		}
		items, err := tx.GetSaleItems(ctx, saleID)
		if err != nil {
			return err
		}
		reference := fmt.Sprintf("REFUND-%d", saleID)
		for _, item := range items {
			if _, err = tx.InsertLedgerEntry(ctx, inventory.LedgerEntry{
				TenantID:      actor.TenantID,
				ProductID:     item.ProductID,
				Type:          inventory.MovementReturn,
				QuantityDelta: item.Quantity,
				Reference:     reference,
				CreatedBy:     actor.UserID,
			}); err != nil {
				return err
			}
			if err = tx.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		refundedAt, err := tx.MarkSaleRefunded(ctx, saleID)
		if err != nil {
			return err
		}
		result = RefundResult{
			SaleID:     strconv.FormatInt(saleID, 10),
			Status:     StatusRefunded,
			RefundedAt: &refundedAt,
		}
		return nil
	})
	if err != nil {
		return RefundResult{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: actor.TenantID,
			ActorID:  actor.UserID,
			Action:   "sales:refund",
			Entity:   "sale",
			EntityID: strconv.FormatInt(saleID, 10),
		})
	}
	return result, nil
}

// GetSale loads a sale with its items.
func (s *Service) GetSale(ctx context.Context, tenantID, saleID int64) (Sale, error) {
	return s.repo.GetSale(ctx, tenantID, saleID)
}

// ListSales returns sales newest first.
func (s *Service) ListSales(ctx context.Context, filter ListSalesFilter) ([]Sale, error) {
	return s.repo.ListSales(ctx, filter)
}

// GetReceipt renders the customer-facing receipt for a sale.
func (s *Service) GetReceipt(ctx context.Context, tenantID, saleID int64) (Receipt, error) {
	data, err := s.repo.GetReceiptData(ctx, tenantID, saleID)
	if err != nil {
		return Receipt{}, err
	}
	code := data.Currency
	if unit, err := currency.ParseISO(code); err == nil {
		code = unit.String()
	}
	receipt := Receipt{
		SaleID:    strconv.FormatInt(data.Sale.ID, 10),
		StoreName: data.StoreName,
		Currency:  code,
		Status:    data.Sale.Status,
		CreatedAt: data.Sale.CreatedAt,
		Total:     fmt.Sprintf("%s %s", code, data.Sale.Total.StringFixed(2)),
		Footer:    "Thank you for your purchase!",
	}
	for _, item := range data.Sale.Items {
		receipt.Items = append(receipt.Items, ReceiptItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: fmt.Sprintf("%s %s", code, item.UnitPrice.StringFixed(2)),
			LineTotal: fmt.Sprintf("%s %s", code, item.LineTotal.StringFixed(2)),
		})
	}
	return receipt, nil
}

// withRetry runs the transaction callback, retrying serialization failures
// up to the configured budget. A check-constraint violation on stock means
// the row went negative despite the lock and maps to insufficient stock.
func (s *Service) withRetry(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	var err error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		err = s.repo.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if db.IsCheckViolation(err) {
			return ErrInsufficientStock
		}
		if !db.IsRetryable(err) {
			return err
		}
		s.logger.WarnContext(ctx, "retrying conflicting transaction", "attempt", attempt)
	}
	return ErrTransactionConflict
}

func distinctProductIDs(lines []SaleLineInput) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
