package auth

import (
	"context"
	"strings"
)

// Role is the coarse access level resolved at the gateway.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Context is the identity a request acts under. It is resolved once at the
// transport boundary and passed explicitly into every orchestrator call;
// there is no ambient request state.
type Context struct {
	SubjectID string
	Email     string
	Role      Role
}

// IsAdmin matches the role case-insensitively, mirroring how upstream
// services emit it.
func (c Context) IsAdmin() bool {
	return strings.EqualFold(string(c.Role), string(RoleAdmin))
}

// Owns reports whether the subject owns the given entity.
func (c Context) Owns(ownerID string) bool {
	return c.SubjectID != "" && c.SubjectID == ownerID
}

// CanAccess reports whether the subject may read the given entity:
// admins see everything, everyone else only their own records.
func (c Context) CanAccess(ownerID string) bool {
	return c.IsAdmin() || c.Owns(ownerID)
}

type ctxKey struct{}

// WithContext attaches the resolved identity to the request context.
func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the identity stored by the transport boundary. The
// zero Context is returned for anonymous requests.
func FromContext(ctx context.Context) Context {
	c, _ := ctx.Value(ctxKey{}).(Context)
	return c
}
