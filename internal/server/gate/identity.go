package gate

import (
	"context"

	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	AccountID string
	Username  string
	Role      rbac.Role
	TenantID  *string
	Active    bool
}

// Can reports whether the identity's role grants capability.
func (id *Identity) Can(capability rbac.Capability) bool {
	return id != nil && rbac.Can(id.Role, capability)
}

type ctxKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity attached by the gate, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}
