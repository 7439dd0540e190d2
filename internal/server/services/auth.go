// Package services contains server-side business logic. AuthService handles
// login, registration, refresh and logout; AccountService resolves request
// identities and performs administrative account edits.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/dbx"
	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/auth"
	"github.com/dmitrijs2005/bizledger/internal/server/metrics"
	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bizledger/internal/server/revocation"
	"github.com/google/uuid"
)

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// TokenCodec issues and verifies bearer tokens.
type TokenCodec interface {
	IssueAccess(subject string) (string, error)
	IssueRefresh(subject string) (string, error)
	Verify(ctx context.Context, token string) (*auth.Claims, error)
	VerifyType(ctx context.Context, token string, want auth.TokenType) (*auth.Claims, error)
	Remaining(ctx context.Context, token string) (jti string, ttl time.Duration)
	AccessTTL() time.Duration
}

// AuthService orchestrates the credential store, password hasher, token
// codec and lockout policy.
type AuthService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	hasher        PasswordHasher
	codec         TokenCodec
	lockout       *auth.LockoutPolicy
	denylist      revocation.Denylist
	recorder      metrics.Recorder
	strictRefresh bool
	logger        logging.Logger
}

type AuthOption func(*AuthService)

// WithStrictRefresh makes RefreshToken demand a refresh-type token and
// re-check that the account is active and unlocked.
func WithStrictRefresh(strict bool) AuthOption {
	return func(s *AuthService) { s.strictRefresh = strict }
}

// WithRevocation enables token revocation on logout.
func WithRevocation(d revocation.Denylist) AuthOption {
	return func(s *AuthService) { s.denylist = d }
}

func WithMetrics(r metrics.Recorder) AuthOption {
	return func(s *AuthService) { s.recorder = r }
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, codec TokenCodec,
	lockout *auth.LockoutPolicy, logger logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		lockout:     lockout,
		denylist:    revocation.Noop{},
		recorder:    metrics.Nop{},
		logger:      logger.With("module", "auth_service"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login authenticates by username or email. Unknown identifiers and wrong
// passwords both yield ErrInvalidCredentials. Every attempt against an
// existing, active, unlocked account updates its lockout state.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUsernameOrEmail(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.fail(ctx, "login", InvalidCredentials, "identifier", in.Identifier)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !account.IsActive {
		s.fail(ctx, "login", AccountDisabled, "username", account.Username)
		return nil, ErrAccountDisabled
	}

	if s.lockout.IsLocked(account) {
		s.fail(ctx, "login", AccountLocked, "username", account.Username)
		return nil, &AuthError{Kind: AccountLocked, RetryAfter: account.LockedUntil}
	}

	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		s.lockout.OnFailure(account)
		if err := repo.UpdateLoginState(ctx, account); err != nil {
			return nil, fmt.Errorf("save login state: %w", err)
		}
		// locked accounts never reach this point, so a lock here is new
		if s.lockout.IsLocked(account) {
			s.recorder.AccountLocked()
			s.logger.Warn(ctx, "account locked", "username", account.Username,
				"failed_attempts", account.FailedAttempts, "locked_until", account.LockedUntil)
		}
		s.fail(ctx, "login", InvalidCredentials, "username", account.Username, "failed_attempts", account.FailedAttempts)
		return nil, ErrInvalidCredentials
	}

	s.lockout.OnSuccess(account)
	if err := repo.UpdateLoginState(ctx, account); err != nil {
		return nil, fmt.Errorf("save login state: %w", err)
	}

	result, err := s.startSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.recorder.AuthAttempt("login", "success")
	s.logger.Info(ctx, "login succeeded", "username", account.Username, "role", string(account.Role))
	return result, nil
}

// Register creates an account and immediately logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	account, err := s.CreateAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	s.recorder.AuthAttempt("register", "success")

	return s.Login(ctx, LoginInput{Identifier: account.Username, Password: in.Password})
}

// CreateAccount validates and stores a new account without logging it in.
// Uniqueness checks, tenant resolution and the insert share one transaction;
// the unique indexes settle concurrent registrations of the same username
// or email.
func (s *AuthService) CreateAccount(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrSecretTooLong) {
			return nil, &ValidationError{Field: "password", Message: "is too long"}
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		ID:             uuid.NewString(),
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   digest,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Phone:          in.Phone,
		Role:           rbac.ParseRole(in.Role),
		IsActive:       true,
		EmailVerified:  false,
		FailedAttempts: 0,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		taken, err := repo.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}

		taken, err = repo.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		if in.TenantID != "" {
			if _, err := uuid.Parse(in.TenantID); err != nil {
				return ErrTenantNotFound
			}
			tenant, err := s.repomanager.Tenants(tx).GetByID(ctx, in.TenantID)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return ErrTenantNotFound
				}
				return err
			}
			account.TenantID = &tenant.ID
		}

		_, err = repo.Create(ctx, account)
		switch {
		case errors.Is(err, accounts.ErrUsernameTaken):
			return ErrUsernameTaken
		case errors.Is(err, accounts.ErrEmailTaken):
			return ErrEmailTaken
		}
		return err
	})
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			s.fail(ctx, "register", authErr.Kind, "username", in.Username)
			return nil, err
		}
		return nil, fmt.Errorf("register account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "username", account.Username, "role", string(account.Role))
	return account, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair. With
// strict refresh off, any valid token is accepted and the account's state is
// not re-checked.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		s.fail(ctx, "refresh", InvalidRefreshPayload)
		return nil, ErrInvalidRefreshPayload
	}

	var (
		claims *auth.Claims
		err    error
	)
	if s.strictRefresh {
		claims, err = s.codec.VerifyType(ctx, refreshToken, auth.RefreshToken)
	} else {
		claims, err = s.codec.Verify(ctx, refreshToken)
	}
	if err != nil {
		s.fail(ctx, "refresh", InvalidToken)
		return nil, &AuthError{Kind: InvalidToken, Err: err}
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("denylist lookup: %w", err)
	}
	if revoked {
		s.fail(ctx, "refresh", InvalidToken, "username", claims.Subject, "reason", "revoked")
		return nil, ErrInvalidToken
	}

	account, err := s.repomanager.Accounts(s.db).GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.fail(ctx, "refresh", InvalidCredentials, "username", claims.Subject)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if s.strictRefresh {
		if !account.IsActive {
			s.fail(ctx, "refresh", AccountDisabled, "username", account.Username)
			return nil, ErrAccountDisabled
		}
		if s.lockout.IsLocked(account) {
			s.fail(ctx, "refresh", AccountLocked, "username", account.Username)
			return nil, &AuthError{Kind: AccountLocked, RetryAfter: account.LockedUntil}
		}
	}

	result, err := s.startSession(ctx, account)
	if err != nil {
		return nil, err
	}
	s.recorder.AuthAttempt("refresh", "success")
	return result, nil
}

// Logout revokes the given tokens when a denylist is configured and is a
// no-op otherwise. It never fails; denylist errors are only logged.
func (s *AuthService) Logout(ctx context.Context, tokens ...string) {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		jti, ttl := s.codec.Remaining(ctx, token)
		if jti == "" {
			continue
		}
		if err := s.denylist.Revoke(ctx, jti, ttl); err != nil {
			s.logger.Error(ctx, "token revocation failed", "error", err)
		}
	}
	s.recorder.AuthAttempt("logout", "success")
}

func (s *AuthService) startSession(ctx context.Context, account *models.Account) (*AuthResult, error) {
	access, err := s.codec.IssueAccess(account.Username)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefresh(account.Username)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	result := &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    common.TokenType,
		ExpiresIn:    s.codec.AccessTTL().Milliseconds(),
		UserID:       account.ID,
		Username:     account.Username,
		Email:        account.Email,
		FullName:     account.FullName(),
		Role:         account.Role,
		TenantID:     account.TenantID,
	}

	if account.TenantID != nil {
		tenant, err := s.repomanager.Tenants(s.db).GetByID(ctx, *account.TenantID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("find tenant: %w", err)
		}
		if tenant != nil {
			result.TenantName = tenant.Name
		}
	}

	return result, nil
}

func (s *AuthService) fail(ctx context.Context, operation string, kind AuthErrorKind, args ...any) {
	s.recorder.AuthAttempt(operation, kind.String())
	s.logger.Warn(ctx, operation+" rejected", append([]any{"kind", kind.String()}, args...)...)
}
