// Package revocation implements the optional bearer token denylist. Entries
// are keyed by the token's jti claim and live no longer than the token
// itself would.
package revocation

import (
	"context"
	"time"
)

// Denylist records revoked tokens until they would have expired anyway.
type Denylist interface {
	// Revoke denylists the token with the given jti for ttl. A non-positive
	// ttl or an empty jti is a no-op.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Close() error
}

// Noop is the default: logout is stateless and nothing is ever revoked.
type Noop struct{}

func (Noop) Revoke(context.Context, string, time.Duration) error { return nil }
func (Noop) IsRevoked(context.Context, string) (bool, error)     { return false, nil }
func (Noop) Close() error                                        { return nil }
