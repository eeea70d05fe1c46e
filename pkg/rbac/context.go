package rbac

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	ID uuid.UUID
	// OrganizationID scopes role checks to an organization in addition to
	// platform-wide roles. Nil checks platform-wide roles only.
	OrganizationID *uuid.UUID
}

type principalCtxKey struct{}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext retrieves the principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}

// ActorIDFromContext returns the principal id as a string. It matches
// audit.ContextExtractor.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.ID.String(), true
}

// OrganizationIDFromContext returns the organization of the principal as a
// string. It matches audit.ContextExtractor.
func OrganizationIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.OrganizationID == nil {
		return "", false
	}
	return p.OrganizationID.String(), true
}
