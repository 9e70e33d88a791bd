package shared

import "context"

// Role names carried in token claims.
const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

// Principal is the verified identity bound to a single request. It is
// threaded explicitly through services; nothing reads it from global state.
type Principal struct {
	IdentityID int64
	EmployeeID string
	OrgID      *int64
	Role       string
}

// IsAdmin reports whether the principal carries the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the verified principal in context for the
// lifetime of the request.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the bound principal. The second return is
// false on unauthenticated requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
