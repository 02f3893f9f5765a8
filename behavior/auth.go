package behavior

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/kbukum/mediator/errors"
	"github.com/kbukum/mediator/mediator"
)

// Claims is the authenticated caller attached to a dispatch context by the
// transport.
type Claims struct {
	Subject string
	Roles   []string
	Values  map[string]any
}

// HasRole reports whether the caller holds role.
func (c *Claims) HasRole(role string) bool {
	return c != nil && slices.Contains(c.Roles, role)
}

type claimsKey struct{}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims in ctx, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// Secured is implemented by requests that need an authenticated caller.
// Every listed role is required; an empty list only requires a caller.
type Secured interface {
	RequiredRoles() []string
}

// Authorization enforces Secured requests. Requests that don't implement it
// pass through.
func Authorization() mediator.OpenBehavior {
	return &named{name: "behavior.Authorization", fn: func(ctx context.Context, request any, next mediator.NextAny) (any, error) {
		secured, ok := request.(Secured)
		if !ok {
			return next(ctx)
		}
		claims, ok := ClaimsFromContext(ctx)
		if !ok {
			return nil, errors.Unauthorized("")
		}
		for _, role := range secured.RequiredRoles() {
			if !claims.HasRole(role) {
				return nil, errors.Forbidden(fmt.Sprintf("Role %q is required for %s.", role, mediator.RequestName(request))).
					WithDetail("role", role)
			}
		}
		return next(ctx)
	}}
}

// RequireClaim is a behavior for one request type that demands a claim
// value. Values are compared with reflect.DeepEqual; JSON numbers arrive as
// float64.
func RequireClaim[Req, Res any](key string, value any) mediator.Behavior[Req, Res] {
	return mediator.BehaviorFunc[Req, Res](func(ctx context.Context, request Req, next mediator.Next[Res]) (Res, error) {
		var zero Res
		claims, ok := ClaimsFromContext(ctx)
		if !ok {
			return zero, errors.Unauthorized("")
		}
		if got, ok := claims.Values[key]; !ok || !reflect.DeepEqual(got, value) {
			return zero, errors.Forbidden(fmt.Sprintf("Claim %q does not allow this action.", key)).WithDetail("claim", key)
		}
		return next(ctx)
	})
}
