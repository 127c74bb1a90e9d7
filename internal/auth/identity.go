// Package auth defines the caller identity and the session tokens that carry it.
//
// An Identity is created at login, travels explicitly through context.Context
// for the life of a request, and is invalidated at logout by revoking its token.
package auth

import "context"

// Role gates which surfaces and which query audience a caller gets.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Identity is an authenticated caller.
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	// SessionID is the token id (jti) the identity was presented with.
	SessionID string `json:"-"`
}

// IsAdmin reports whether the caller moderates the catalog.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanSubmit reports whether the caller may submit listings.
func (i Identity) CanSubmit() bool {
	return i.Role == RoleAgent || i.Role == RoleAdmin
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity on ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
