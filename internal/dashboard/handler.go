package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Handler exposes the dashboard KPI card.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers dashboard routes on an authenticated router group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.kpis)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) kpis(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	summary, err := h.service.GetKPIs(r.Context(), actor.TenantID)
	if err != nil {
		h.logger.Error("dashboard request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

// refresh bumps the cache version so the next read recomputes every KPI.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.ActorFromContext(r.Context()); !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
		return
	}
	if err := h.service.Invalidate(r.Context()); err != nil {
		h.logger.Error("dashboard refresh failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
