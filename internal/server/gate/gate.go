// Package gate authenticates and authorizes inbound calls before they reach
// business handlers. It is shared by the HTTP middleware and the gRPC
// interceptor.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/auth"
	"github.com/dmitrijs2005/bizledger/internal/server/metrics"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"github.com/dmitrijs2005/bizledger/internal/server/revocation"
)

var (
	// ErrInvalidToken covers every token problem: bad signature, expiry,
	// revocation, or an account that no longer exists or is disabled.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", common.ErrorUnauthorized)
	// ErrAuthenticationRequired is returned for anonymous calls to
	// non-public routes.
	ErrAuthenticationRequired = fmt.Errorf("authentication required: %w", common.ErrorUnauthorized)
	// ErrAccessDenied is returned when the caller's role is not allowed.
	ErrAccessDenied = fmt.Errorf("access denied: %w", common.ErrorForbidden)
)

// TokenVerifier is the part of the token codec the gate needs.
type TokenVerifier interface {
	VerifyType(ctx context.Context, token string, want auth.TokenType) (*auth.Claims, error)
}

// Resolver loads the current identity for a token subject. It returns
// common.ErrorNotFound when the account no longer exists.
type Resolver interface {
	ResolveIdentity(ctx context.Context, username string) (*Identity, error)
}

type Gate struct {
	verifier TokenVerifier
	resolver Resolver
	denylist revocation.Denylist
	recorder metrics.Recorder
	logger   logging.Logger
}

type Option func(*Gate)

func WithDenylist(d revocation.Denylist) Option {
	return func(g *Gate) { g.denylist = d }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(g *Gate) { g.recorder = r }
}

func New(verifier TokenVerifier, resolver Resolver, logger logging.Logger, opts ...Option) *Gate {
	g := &Gate{
		verifier: verifier,
		resolver: resolver,
		denylist: revocation.Noop{},
		recorder: metrics.Nop{},
		logger:   logger.With("module", "gate"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Authenticate turns a bearer token into an Identity. An empty token yields
// a nil identity and no error (anonymous). Only access tokens are accepted.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := g.verifier.VerifyType(ctx, token, auth.AccessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := g.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("denylist lookup: %w", err)
	}
	if revoked {
		g.logger.Info(ctx, "revoked token presented", "username", claims.Subject)
		return nil, ErrInvalidToken
	}

	id, err := g.resolver.ResolveIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.logger.Warn(ctx, "token subject no longer exists", "username", claims.Subject)
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if !id.Active {
		g.logger.Warn(ctx, "token of disabled account presented", "username", claims.Subject)
		return nil, ErrInvalidToken
	}

	return id, nil
}

// Authorize checks id against rule. A nil id is anonymous.
func (g *Gate) Authorize(id *Identity, rule rbac.Rule) error {
	if rule.Access == rbac.Public {
		return nil
	}
	if id == nil {
		return ErrAuthenticationRequired
	}
	if !rule.Allows(id.Role) {
		return ErrAccessDenied
	}
	return nil
}

// Check runs the whole gate for one call: public rules pass without looking
// at the token, everything else is authenticated exactly once and then
// authorized against rule.
func (g *Gate) Check(ctx context.Context, rule rbac.Rule, token string) (*Identity, error) {
	if rule.Access == rbac.Public {
		g.recorder.GateDecision("public")
		return nil, nil
	}

	id, err := g.Authenticate(ctx, token)
	if err != nil {
		g.record(err)
		return nil, err
	}

	if err := g.Authorize(id, rule); err != nil {
		if id != nil {
			g.logger.Info(ctx, "access denied", "username", id.Username, "role", string(id.Role), "rule", rule.Pattern)
		}
		g.record(err)
		return nil, err
	}

	g.recorder.GateDecision("allowed")
	return id, nil
}

func (g *Gate) record(err error) {
	switch {
	case errors.Is(err, ErrInvalidToken):
		g.recorder.GateDecision("invalid_token")
	case errors.Is(err, ErrAuthenticationRequired):
		g.recorder.GateDecision("anonymous")
	case errors.Is(err, ErrAccessDenied):
		g.recorder.GateDecision("forbidden")
	default:
		g.recorder.GateDecision("error")
	}
}
