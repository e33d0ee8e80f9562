package user

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request by the auth
// middleware. Handlers trust it without re-verifying credentials.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the principal may bypass ownership filtering.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal set by the auth middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
