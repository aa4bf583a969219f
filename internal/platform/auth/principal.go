package auth

import (
	"context"
	"slices"
)

// Role names seeded by the schema migrations.
const (
	RoleAdmin     = "admin"
	RoleClinician = "clinician"
	RoleCounselor = "counselor"
	RolePharmacy  = "pharmacy"
)

// Principal is the authenticated staff member for one request. It is loaded
// from storage on every request and never mutated afterwards.
type Principal struct {
	StaffID   int64    `json:"staffId"`
	StaffCode string   `json:"staffCode"`
	Cadre     string   `json:"cadre"`
	Name      string   `json:"name"`
	Active    bool     `json:"active"`
	Roles     []string `json:"roles"`
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// PrincipalStore loads a staff member with live roles. Implementations return
// an error matching apperr.ErrNotFound when the staff id does not exist.
type PrincipalStore interface {
	FindPrincipal(ctx context.Context, staffID int64) (*Principal, error)
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

func RolesFromContext(ctx context.Context) []string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Roles
	}
	return nil
}
