package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian/internal/auth"
	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     auth.Middleware
	validator *validator.Validate
}

// NewHandler constructs an inventory handler.
func NewHandler(logger *slog.Logger, service *Service, authz auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz, validator: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/low-stock", h.handleListLowStock)
	r.Get("/{productID}/availability", h.handleAvailability)
	r.Get("/{productID}/movements", h.handleListMovements)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleOwner, shared.RoleManager))
		r.Put("/{productID}", h.handleAdjust)
	})
}

type adjustRequest struct {
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
	Note     string `json:"note,omitempty" validate:"max=500"`
}

type stockLevelView struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	LowStock  int    `json:"low_stock"`
}

type lowStockView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	LowStock  int    `json:"low_stock"`
}

type movementView struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Type          string    `json:"type"`
	QuantityDelta int       `json:"quantity_delta"`
	Reference     string    `json:"reference"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	level, err := h.service.Adjust(r.Context(), actor, AdjustInput{
		ProductID:   productID,
		NewQuantity: *req.Quantity,
		Note:        req.Note,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stockLevelView{
		ProductID: strconv.FormatInt(level.ProductID, 10),
		Quantity:  level.Quantity,
		LowStock:  level.LowStock,
	})
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	availability, err := h.service.CheckAvailability(r.Context(), actor.TenantID, productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, availability)
}

func (h *Handler) handleListLowStock(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	rows, err := h.service.ListLowStock(r.Context(), actor.TenantID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]lowStockView, 0, len(rows))
	for _, row := range rows {
		views = append(views, lowStockView{
			ProductID: strconv.FormatInt(row.ProductID, 10),
			Name:      row.Name,
			SKU:       row.SKU,
			Quantity:  row.Quantity,
			LowStock:  row.LowStock,
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) handleListMovements(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	filter := MovementFilter{TenantID: actor.TenantID, ProductID: productID}
	q := r.URL.Query()
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	entries, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]movementView, 0, len(entries))
	for _, e := range entries {
		views = append(views, movementView{
			ID:            strconv.FormatInt(e.ID, 10),
			ProductID:     strconv.FormatInt(e.ProductID, 10),
			Type:          string(e.Type),
			QuantityDelta: e.QuantityDelta,
			Reference:     e.Reference,
			CreatedBy:     strconv.FormatInt(e.CreatedBy, 10),
			CreatedAt:     e.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrStockNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "stock level not found")
	case errors.Is(err, ErrNegativeQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
