package services

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/common"
)

// AuthErrorKind enumerates the authentication failures callers can see.
type AuthErrorKind int

const (
	InvalidCredentials AuthErrorKind = iota + 1
	AccountDisabled
	AccountLocked
	UsernameTaken
	EmailTaken
	TenantNotFound
	InvalidToken
	InvalidRefreshPayload
)

var authErrorMessages = map[AuthErrorKind]string{
	InvalidCredentials:    "invalid username or password",
	AccountDisabled:       "account is disabled",
	AccountLocked:         "account is temporarily locked",
	UsernameTaken:         "username is already taken",
	EmailTaken:            "email is already registered",
	TenantNotFound:        "company not found",
	InvalidToken:          "invalid token",
	InvalidRefreshPayload: "refresh token is required",
}

func (k AuthErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case AccountDisabled:
		return "account_disabled"
	case AccountLocked:
		return "account_locked"
	case UsernameTaken:
		return "username_taken"
	case EmailTaken:
		return "email_taken"
	case TenantNotFound:
		return "tenant_not_found"
	case InvalidToken:
		return "invalid_token"
	case InvalidRefreshPayload:
		return "invalid_refresh_payload"
	default:
		return "unknown"
	}
}

// AuthError is a user-safe authentication failure. Err, when set, is the
// internal cause and is never shown to callers.
type AuthError struct {
	Kind       AuthErrorKind
	RetryAfter *time.Time
	Err        error
}

func (e *AuthError) Error() string {
	return authErrorMessages[e.Kind]
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any *AuthError of the same kind, so the sentinels below work
// with errors.Is.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials    = &AuthError{Kind: InvalidCredentials}
	ErrAccountDisabled       = &AuthError{Kind: AccountDisabled}
	ErrAccountLocked         = &AuthError{Kind: AccountLocked}
	ErrUsernameTaken         = &AuthError{Kind: UsernameTaken}
	ErrEmailTaken            = &AuthError{Kind: EmailTaken}
	ErrTenantNotFound        = &AuthError{Kind: TenantNotFound}
	ErrInvalidToken          = &AuthError{Kind: InvalidToken}
	ErrInvalidRefreshPayload = &AuthError{Kind: InvalidRefreshPayload}
)

// ValidationError reports a malformed request field. It wraps
// common.ErrorValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return common.ErrorValidation }
