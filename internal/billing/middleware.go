package billing

import (
	"context"
	"net/http"

	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Guard wraps route groups with subscription checks. A nil Guard passes
// everything through, which keeps handler tests free of billing setup.
type Guard struct {
	service *Service
}

// NewGuard constructs a Guard.
func NewGuard(service *Service) *Guard {
	return &Guard{service: service}
}

// RequireActive rejects requests from tenants without a live subscription.
func (g *Guard) RequireActive(next http.Handler) http.Handler {
	return g.check(next, (*Service).CheckActive)
}

// RequireReports rejects requests from plans without report access.
func (g *Guard) RequireReports(next http.Handler) http.Handler {
	return g.check(next, (*Service).EnforceReportsAccess)
}

func (g *Guard) check(next http.Handler, verify func(*Service, context.Context, int64) error) http.Handler {
	if g == nil || g.service == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := shared.ActorFromContext(r.Context())
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing actor")
			return
		}
		if err := verify(g.service, r.Context(), actor.TenantID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
