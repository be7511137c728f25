package identity

import (
	"context"
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID  string   `json:"userId"`
	Email   string   `json:"email,omitempty"`
	Groups  []string `json:"groups,omitempty"`
	IsAdmin bool     `json:"isAdmin"`
}

// NewPrincipal builds a principal and marks it admin when it belongs to adminGroup
func NewPrincipal(userID, email string, groups []string, adminGroup string) *Principal {
	p := &Principal{
		UserID: userID,
		Email:  email,
		Groups: groups,
	}
	p.IsAdmin = adminGroup != "" && p.InGroup(adminGroup)
	return p
}

// InGroup reports whether the principal belongs to the group
func (p *Principal) InGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// TokenVerifier validates a bearer token and returns its principal
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the principal in the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal stored in the context
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
