package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/gate"
	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/repomanager"
)

// AccountService reads account state for the gate and performs
// administrative edits.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	logger      logging.Logger
}

// NewAccountService returns an AccountService. A nil now means time.Now.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, now func() time.Time, logger logging.Logger) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		db:          db,
		repomanager: m,
		now:         now,
		logger:      logger.With("module", "account_service"),
	}
}

// ResolveIdentity loads the account's current role and status. It returns
// common.ErrorNotFound for unknown usernames.
func (s *AccountService) ResolveIdentity(ctx context.Context, username string) (*gate.Identity, error) {
	account, err := s.repomanager.Accounts(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &gate.Identity{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		TenantID:  account.TenantID,
		Active:    account.IsActive,
	}, nil
}

// ListLocked returns accounts whose lock has not yet expired.
func (s *AccountService) ListLocked(ctx context.Context) ([]*models.Account, error) {
	return s.repomanager.Accounts(s.db).ListLocked(ctx, s.now())
}

// Unlock clears the failure counter and any lock.
func (s *AccountService) Unlock(ctx context.Context, username string) error {
	if err := s.repomanager.Accounts(s.db).Unlock(ctx, username); err != nil {
		return err
	}
	s.logger.Info(ctx, "account unlocked", "username", username)
	return nil
}

// ChangeRole sets a new role. Unlike registration, an unknown role name is
// rejected instead of defaulting to USER.
func (s *AccountService) ChangeRole(ctx context.Context, username, role string) error {
	r := rbac.Role(strings.ToUpper(strings.TrimSpace(role)))
	if !r.Valid() {
		return &ValidationError{Field: "role", Message: fmt.Sprintf("must be one of %v", rbac.Roles())}
	}
	if err := s.repomanager.Accounts(s.db).UpdateRole(ctx, username, r); err != nil {
		return err
	}
	s.logger.Info(ctx, "account role changed", "username", username, "role", string(r))
	return nil
}

// SetActive enables or disables an account. Disabled accounts fail at the
// gate on their next request.
func (s *AccountService) SetActive(ctx context.Context, username string, active bool) error {
	if err := s.repomanager.Accounts(s.db).UpdateActive(ctx, username, active); err != nil {
		return err
	}
	s.logger.Info(ctx, "account status changed", "username", username, "active", active)
	return nil
}
