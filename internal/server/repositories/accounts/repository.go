package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
)

// Errors returned by Create when a unique constraint is violated. Both wrap
// common.ErrorAlreadyExists.
var (
	ErrUsernameTaken = fmt.Errorf("username %w", common.ErrorAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("email %w", common.ErrorAlreadyExists)
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateLoginState persists failed_attempts, locked_until and last_login_at.
	UpdateLoginState(ctx context.Context, account *models.Account) error

	UpdateRole(ctx context.Context, username string, role rbac.Role) error
	UpdateActive(ctx context.Context, username string, active bool) error
	Unlock(ctx context.Context, username string) error
	ListLocked(ctx context.Context, now time.Time) ([]*models.Account, error)
}
