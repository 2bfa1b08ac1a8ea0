package catalog

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a tenant-scoped catalog entry. Products that have been sold are
// soft-deactivated, never hard-deleted, so historical sale items keep their
// referent.
type Product struct {
	ID        int64
	TenantID  int64
	Name      string
	SKU       string
	Price     decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
}

// ProductWithStock joins the product with its projection for listings.
type ProductWithStock struct {
	Product
	Quantity *int
	LowStock *int
}

// CreateProductRequest creates a product together with its stock projection.
type CreateProductRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	SKU             string          `json:"sku" validate:"required,max=64"`
	Price           decimal.Decimal `json:"price"`
	InitialQuantity int             `json:"initial_quantity" validate:"gte=0"`
	LowStock        *int            `json:"low_stock,omitempty" validate:"omitempty,gte=0"`
}

// UpdateProductRequest updates catalog fields, never inventory.
type UpdateProductRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
}

// ProductView is the API-safe projection with string identifiers.
type ProductView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	Inventory *InventoryView  `json:"inventory,omitempty"`
}

// InventoryView is the nested stock snapshot on product views.
type InventoryView struct {
	Quantity int `json:"quantity"`
	LowStock int `json:"low_stock"`
}

var (
	// ErrSKUExists indicates the SKU is taken within the tenant.
	ErrSKUExists = errors.New("sku already exists")
	// ErrInvalidPrice rejects non-positive prices.
	ErrInvalidPrice = errors.New("price must be positive")
)

func viewOf(p ProductWithStock) ProductView {
	view := ProductView{
		ID:        strconv.FormatInt(p.ID, 10),
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
	if p.Quantity != nil && p.LowStock != nil {
		view.Inventory = &InventoryView{Quantity: *p.Quantity, LowStock: *p.LowStock}
	}
	return view
}
