package sales

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus is the lifecycle state of a sale. Refunds are full and final,
// so the only transition is COMPLETED to REFUNDED.
type SaleStatus string

const (
	StatusCompleted SaleStatus = "COMPLETED"
	StatusRefunded  SaleStatus = "REFUNDED"
)

// Sale is a committed checkout. Total and item prices are snapshots taken at
// sale time; later catalog edits never change them.
type Sale struct {
	ID         int64
	TenantID   int64
	CashierID  int64
	Status     SaleStatus
	Total      decimal.Decimal
	CreatedAt  time.Time
	RefundedAt *time.Time
	Items      []SaleItem
}

// SaleItem is one basket line with its price snapshot.
type SaleItem struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// SaleLineInput is one requested basket line. The same product may appear on
// several lines; stock is checked against their combined quantity.
type SaleLineInput struct {
	ProductID int64 `json:"product_id,string" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateSaleInput is the checkout request body.
type CreateSaleInput struct {
	Lines []SaleLineInput `json:"items" validate:"required,min=1,dive"`
}

// RefundResult reports a completed refund.
type RefundResult struct {
	SaleID     string     `json:"sale_id"`
	Status     SaleStatus `json:"status"`
	RefundedAt *time.Time `json:"refunded_at"`
}

// Receipt is the customer-facing rendering of a sale.
type Receipt struct {
	SaleID    string        `json:"sale_id"`
	StoreName string        `json:"store_name"`
	Currency  string        `json:"currency"`
	Status    SaleStatus    `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	Items     []ReceiptItem `json:"items"`
	Total     string        `json:"total"`
	Footer    string        `json:"footer"`
}

// ReceiptItem is one printed receipt line.
type ReceiptItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// ListSalesFilter narrows sale listings.
type ListSalesFilter struct {
	TenantID int64
	Status   SaleStatus
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// SaleView is the API-safe projection with string identifiers.
type SaleView struct {
	ID         string          `json:"id"`
	Status     SaleStatus      `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CashierID  string          `json:"cashier_id"`
	CreatedAt  time.Time       `json:"created_at"`
	RefundedAt *time.Time      `json:"refunded_at,omitempty"`
	Items      []SaleItemView  `json:"items,omitempty"`
}

// SaleItemView is one line of a sale view.
type SaleItemView struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

var (
	// ErrEmptyBasket rejects sales without lines.
	ErrEmptyBasket = errors.New("sale requires at least one item")
	// ErrInvalidQuantity rejects non-positive line quantities.
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	// ErrInvalidProduct indicates a line references a product that does not
	// exist, is inactive, or belongs to another tenant.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrInsufficientStock indicates the requested quantity exceeds the
	// projection. The whole sale is rejected; no partial fulfilment.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrSaleNotFound indicates the sale does not exist in-tenant.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrAlreadyRefunded indicates a second refund attempt.
	ErrAlreadyRefunded = errors.New("sale already refunded")
	// ErrTransactionConflict is returned after the bounded retry budget is
	// exhausted. Callers may retry the whole request.
	ErrTransactionConflict = errors.New("transaction conflict, please retry")
)

func viewOf(s Sale) SaleView {
	view := SaleView{
		ID:         strconv.FormatInt(s.ID, 10),
		Status:     s.Status,
		Total:      s.Total,
		CashierID:  strconv.FormatInt(s.CashierID, 10),
		CreatedAt:  s.CreatedAt,
		RefundedAt: s.RefundedAt,
	}
	for _, item := range s.Items {
		view.Items = append(view.Items, SaleItemView{
			ProductID: strconv.FormatInt(item.ProductID, 10),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return view
}
