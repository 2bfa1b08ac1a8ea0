package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, tenantID, id int64) (ProductWithStock, error)
	ListProducts(ctx context.Context, tenantID int64) ([]ProductWithStock, error)
	UpdateProduct(ctx context.Context, tenantID, id int64, req UpdateProductRequest) error
	DeactivateProduct(ctx context.Context, tenantID, id int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// LimitsPort caps catalog size by the tenant's plan. Nil skips the check.
type LimitsPort interface {
	EnforceProductLimit(ctx context.Context, tenantID int64) error
}

// Service provides product catalog operations.
type Service struct {
	repo   RepositoryPort
	limits LimitsPort
	audit  AuditPort
}

// NewService constructs Service.
func NewService(repo RepositoryPort, limits LimitsPort, audit AuditPort) *Service {
	return &Service{repo: repo, limits: limits, audit: audit}
}

const defaultLowStock = 5

// CreateProduct inserts the product together with its stock projection in
// one transaction. The initial quantity is the projection's baseline; ledger
// deltas accumulate on top of it.
func (s *Service) CreateProduct(ctx context.Context, actor shared.Actor, req CreateProductRequest) (ProductWithStock, error) {
	if !req.Price.IsPositive() {
		return ProductWithStock{}, ErrInvalidPrice
	}
	if s.limits != nil {
		if err := s.limits.EnforceProductLimit(ctx, actor.TenantID); err != nil {
			return ProductWithStock{}, err
		}
	}
	lowStock := defaultLowStock
	if req.LowStock != nil {
		lowStock = *req.LowStock
	}

	var created Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.InsertProduct(ctx, Product{
			TenantID: actor.TenantID,
			Name:     req.Name,
			SKU:      req.SKU,
			Price:    req.Price,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertStockLevel(ctx, product.ID, req.InitialQuantity, lowStock); err != nil {
			return err
		}
		if req.InitialQuantity > 0 {
			if err := tx.InsertInitialMovement(ctx, actor.TenantID, product.ID, req.InitialQuantity, actor.UserID); err != nil {
				return err
			}
		}
		created = product
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ProductWithStock{}, ErrSKUExists
		}
		return ProductWithStock{}, fmt.Errorf("create product: %w", err)
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: actor.TenantID,
			ActorID:  actor.UserID,
			Action:   "catalog:create",
			Entity:   "product",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta: map[string]any{
				"sku":              created.SKU,
				"initial_quantity": req.InitialQuantity,
			},
		})
	}

	qty := req.InitialQuantity
	return ProductWithStock{Product: created, Quantity: &qty, LowStock: &lowStock}, nil
}

// GetProduct loads one product in-tenant.
func (s *Service) GetProduct(ctx context.Context, tenantID, id int64) (ProductWithStock, error) {
	return s.repo.GetProduct(ctx, tenantID, id)
}

// ListProducts lists the tenant's active products.
func (s *Service) ListProducts(ctx context.Context, tenantID int64) ([]ProductWithStock, error) {
	return s.repo.ListProducts(ctx, tenantID)
}

// UpdateProduct applies catalog changes and returns the fresh row.
func (s *Service) UpdateProduct(ctx context.Context, actor shared.Actor, id int64, req UpdateProductRequest) (ProductWithStock, error) {
	if req.Price != nil && !req.Price.IsPositive() {
		return ProductWithStock{}, ErrInvalidPrice
	}
	if err := s.repo.UpdateProduct(ctx, actor.TenantID, id, req); err != nil {
		return ProductWithStock{}, err
	}
	return s.repo.GetProduct(ctx, actor.TenantID, id)
}

// DeactivateProduct soft-deletes a product; it disappears from POS listings
// but historical sales keep referencing it.
func (s *Service) DeactivateProduct(ctx context.Context, actor shared.Actor, id int64) error {
	if err := s.repo.DeactivateProduct(ctx, actor.TenantID, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: actor.TenantID,
			ActorID:  actor.UserID,
			Action:   "catalog:deactivate",
			Entity:   "product",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}
