package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pos/meridian/internal/auth"
	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Handler exposes reporting endpoints.
type Handler struct {
	service *Service
	authz   auth.Middleware
	logger  *slog.Logger
}

// NewHandler constructs Handler.
func NewHandler(service *Service, authz auth.Middleware, logger *slog.Logger) *Handler {
	return &Handler{service: service, authz: authz, logger: logger}
}

// MountRoutes registers report routes on an authenticated router group.
// Cashiers do not see end-of-day figures.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.RequireRole(shared.RoleOwner, shared.RoleManager)).
		Get("/z-report", h.zReport)
}

func (h *Handler) zReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	report, err := h.service.DailyZReport(r.Context(), actor.TenantID, day)
	if err != nil {
		h.logger.Error("z-report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
