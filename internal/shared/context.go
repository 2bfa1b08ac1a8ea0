package shared

import "context"

// Roles recognised across the application.
const (
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
)

// Actor identifies the authenticated caller of the current request. It is
// resolved once at the HTTP boundary and trusted downstream; engine code
// never re-derives identity.
type Actor struct {
	TenantID int64
	UserID   int64
	Role     string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
