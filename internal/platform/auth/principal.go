package auth

import (
	"context"
)

type contextKey string

const principalKey contextKey = "principal"

// Roles recognized by the access layer. Clinician accounts additionally
// satisfy any patient-facing route they are granted explicitly.
const (
	RolePatient   = "PATIENT"
	RoleClinician = "CLINICIAN"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID   int64
	Username string
	Email    string
	Role     string
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the authenticated principal, or nil when the
// request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
