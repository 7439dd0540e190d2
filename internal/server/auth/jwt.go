// Package auth contains the leaf building blocks of authentication: the
// bearer token codec, the password hasher and the lockout policy.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens. Access tokens
// carry no type claim.
type TokenType string

const (
	AccessToken  TokenType = ""
	RefreshToken TokenType = "refresh"
)

// Claims is the token payload: {jti, sub, iat, exp, type?}. The random jti
// tells apart tokens issued to the same subject within one second.
type Claims struct {
	Type TokenType `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenErrorKind classifies why a token was rejected.
type TokenErrorKind int

const (
	BadSignature TokenErrorKind = iota + 1
	Malformed
	Expired
	UnsupportedType
)

func (k TokenErrorKind) String() string {
	switch k {
	case BadSignature:
		return "bad_signature"
	case Malformed:
		return "malformed"
	case Expired:
		return "expired"
	case UnsupportedType:
		return "unsupported_type"
	default:
		return "unknown"
	}
}

// TokenError is returned by every verification failure.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "invalid token: " + e.Kind.String()
	}
	return fmt.Sprintf("invalid token: %s: %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// TokenErrorKindOf returns the kind of a *TokenError found in err's chain.
func TokenErrorKindOf(err error) (TokenErrorKind, bool) {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// Codec issues and verifies HS256 bearer tokens. It holds no mutable state
// and is safe for concurrent use.
type Codec struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     logging.Logger
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secretKey []byte, accessTTL, refreshTTL time.Duration, logger logging.Logger, opts ...CodecOption) *Codec {
	c := &Codec{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		logger:     logger.With("module", "token_codec"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AccessTTL is the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// IssueAccess signs an access token for subject.
func (c *Codec) IssueAccess(subject string) (string, error) {
	return c.issue(subject, AccessToken, c.accessTTL)
}

// IssueRefresh signs a refresh token for subject.
func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.issue(subject, RefreshToken, c.refreshTTL)
}

func (c *Codec) issue(subject string, typ TokenType, ttl time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(c.secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// Verify checks signature and expiry and returns the claims. Failures are
// logged with their kind and returned as *TokenError.
func (c *Codec) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		kind, _ := TokenErrorKindOf(err)
		c.logger.Warn(ctx, "token rejected", "kind", kind.String())
		return nil, err
	}
	return claims, nil
}

// VerifyType is Verify plus a check that the token carries the wanted type.
func (c *Codec) VerifyType(ctx context.Context, tokenString string, want TokenType) (*Claims, error) {
	claims, err := c.Verify(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		c.logger.Warn(ctx, "token rejected", "kind", UnsupportedType.String(), "type", string(claims.Type))
		return nil, &TokenError{Kind: UnsupportedType}
	}
	return claims, nil
}

// Remaining returns the jti of a correctly signed token and how long it
// stays valid. The ttl is zero for expired or unparseable tokens; it never
// fails.
func (c *Codec) Remaining(ctx context.Context, tokenString string) (jti string, ttl time.Duration) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.ExpiresAt == nil || claims.ID == "" {
		c.logger.Warn(ctx, "cannot compute remaining token ttl", "error", err)
		return "", 0
	}

	remaining := claims.ExpiresAt.Time.Sub(c.now())
	if remaining < 0 {
		return claims.ID, 0
	}
	return claims.ID, remaining
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secretKey, nil
}

func (c *Codec) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, &TokenError{Kind: classify(err), Err: err}
	}
	if !token.Valid {
		return nil, &TokenError{Kind: Malformed}
	}
	if claims.Subject == "" {
		return nil, &TokenError{Kind: Malformed, Err: errors.New("missing subject")}
	}
	if claims.ID == "" {
		return nil, &TokenError{Kind: Malformed, Err: errors.New("missing token id")}
	}
	return claims, nil
}

func classify(err error) TokenErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Malformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return BadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return Expired
	default:
		return Malformed
	}
}
