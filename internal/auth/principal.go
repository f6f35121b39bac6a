package auth

import (
	"context"
	"slices"
)

// Principal is the authenticated identity derived from verified claims.
// Its fields are unexported so it cannot change after construction.
type Principal struct {
	subject string
	roles   []string
}

// NewPrincipal builds a principal, copying roles.
func NewPrincipal(subject string, roles []string) Principal {
	copied := make([]string, len(roles))
	copy(copied, roles)
	return Principal{subject: subject, roles: copied}
}

// Subject returns the subject identifier.
func (p Principal) Subject() string {
	return p.subject
}

// Roles returns a copy of the principal's roles.
func (p Principal) Roles() []string {
	return slices.Clone(p.roles)
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.roles, role)
}

type principalContextKey struct{}

// WithPrincipal returns a child context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFrom extracts the principal attached by the gate, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
