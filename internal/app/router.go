package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pos/meridian/internal/auth"
	"github.com/meridian-pos/meridian/internal/billing"
	"github.com/meridian-pos/meridian/internal/catalog"
	"github.com/meridian-pos/meridian/internal/dashboard"
	"github.com/meridian-pos/meridian/internal/inventory"
	"github.com/meridian-pos/meridian/internal/observability"
	"github.com/meridian-pos/meridian/internal/reports"
	"github.com/meridian-pos/meridian/internal/sales"
	"github.com/meridian-pos/meridian/internal/tenants"
	"github.com/meridian-pos/meridian/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	AuthMiddleware   auth.Middleware
	BillingGuard     *billing.Guard
	AuthHandler      *auth.Handler
	TenantsHandler   *tenants.Handler
	UsersHandler     *users.Handler
	CatalogHandler   *catalog.Handler
	InventoryHandler *inventory.Handler
	SalesHandler     *sales.Handler
	DashboardHandler *dashboard.Handler
	ReportsHandler   *reports.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(params.Metrics.Middleware)

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Require)
			params.AuthHandler.MountRoutes(r)
			r.Route("/tenant", params.TenantsHandler.MountRoutes)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/products", params.CatalogHandler.MountRoutes)
			r.Route("/inventory", params.InventoryHandler.MountRoutes)

			// Selling and reporting require a live subscription.
			r.Group(func(r chi.Router) {
				r.Use(params.BillingGuard.RequireActive)
				r.Route("/sales", params.SalesHandler.MountRoutes)
				r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			})
			r.Group(func(r chi.Router) {
				r.Use(params.BillingGuard.RequireReports)
				r.Route("/reports", params.ReportsHandler.MountRoutes)
			})
		})
	})

	return r
}
