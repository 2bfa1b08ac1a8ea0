package sales

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

// Handler exposes checkout, refunds, and sale reads over HTTP.
type Handler struct {
	service  *Service
	authz    auth.Middleware
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(service *Service, authz auth.Middleware, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		authz:    authz,
		logger:   logger,
		validate: validator.New(),
	}
}

// MountRoutes registers sales routes on an authenticated router group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{saleID}", h.get)
	r.Get("/{saleID}/receipt", h.receipt)
	r.With(h.authz.RequireRole(shared.RoleOwner, shared.RoleManager)).
		Post("/{saleID}/refund", h.refund)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	var input CreateSaleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sale, err := h.service.CreateSale(r.Context(), actor, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(sale))
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	id, err := saleIDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "sale id must be numeric")
		return
	}
	result, err := h.service.RefundSale(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	id, err := saleIDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "sale id must be numeric")
		return
	}
	sale, err := h.service.GetSale(r.Context(), actor.TenantID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(sale))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	filter, err := parseListFilter(r, actor.TenantID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	sales, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]SaleView, 0, len(sales))
	for _, sale := range sales {
		views = append(views, viewOf(sale))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	id, err := saleIDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "sale id must be numeric")
		return
	}
	receipt, err := h.service.GetReceipt(r.Context(), actor.TenantID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyBasket), errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrSaleNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrAlreadyRefunded), errors.Is(err, ErrTransactionConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("sales request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func parseListFilter(r *http.Request, tenantID int64) (ListSalesFilter, error) {
	filter := ListSalesFilter{TenantID: tenantID}
	q := r.URL.Query()
	switch status := q.Get("status"); status {
	case "":
	case string(StatusCompleted), string(StatusRefunded):
		filter.Status = SaleStatus(status)
	default:
		return ListSalesFilter{}, errors.New("status must be COMPLETED or REFUNDED")
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ListSalesFilter{}, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ListSalesFilter{}, errors.New("to must be YYYY-MM-DD")
		}
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return ListSalesFilter{}, errors.New("limit must be between 1 and 500")
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return ListSalesFilter{}, errors.New("offset must be non-negative")
		}
		filter.Offset = n
	}
	return filter, nil
}

func saleIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
}
