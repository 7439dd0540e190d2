package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/dbx"
	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
)

const accountColumns = `id, username, email, password_hash, first_name, last_name, phone, role,
		 is_active, email_verified, tenant_id, last_login_at, failed_attempts, locked_until,
		 created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a           models.Account
		role        string
		tenantID    sql.NullString
		lastLoginAt sql.NullTime
		lockedUntil sql.NullTime
	)

	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Phone, &role,
		&a.IsActive, &a.EmailVerified, &tenantID, &lastLoginAt, &a.FailedAttempts, &lockedUntil,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Role = rbac.Role(role)
	if tenantID.Valid {
		a.TenantID = &tenantID.String
	}
	if lastLoginAt.Valid {
		a.LastLoginAt = &lastLoginAt.Time
	}
	if lockedUntil.Valid {
		a.LockedUntil = &lockedUntil.Time
	}
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, username, email, password_hash, first_name, last_name, phone, role,
		 is_active, email_verified, tenant_id, failed_attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, string(a.Role),
		a.IsActive, a.EmailVerified, a.TenantID, a.FailedAttempts).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			switch constraint {
			case "accounts_email_key":
				return nil, ErrEmailTaken
			default:
				return nil, ErrUsernameTaken
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE username = $1
		 `
	return r.getOne(ctx, query, username)
}

// GetByUsernameOrEmail prefers a username match when the identifier happens
// to be one account's username and another's email.
func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE username = $1 OR email = $1
		 ORDER BY (username = $1) DESC
		 LIMIT 1
		 `
	return r.getOne(ctx, query, identifier)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username)
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email)
}

func (r *PostgresRepository) UpdateLoginState(ctx context.Context, a *models.Account) error {
	query :=
		`UPDATE accounts
		 SET failed_attempts = $2, locked_until = $3, last_login_at = $4, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, a.ID, a.FailedAttempts, a.LockedUntil, a.LastLoginAt)
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, username string, role rbac.Role) error {
	query :=
		`UPDATE accounts
		 SET role = $2, updated_at = now()
		 WHERE username = $1
		 `
	return r.execOne(ctx, query, username, string(role))
}

func (r *PostgresRepository) UpdateActive(ctx context.Context, username string, active bool) error {
	query :=
		`UPDATE accounts
		 SET is_active = $2, updated_at = now()
		 WHERE username = $1
		 `
	return r.execOne(ctx, query, username, active)
}

func (r *PostgresRepository) Unlock(ctx context.Context, username string) error {
	query :=
		`UPDATE accounts
		 SET failed_attempts = 0, locked_until = NULL, updated_at = now()
		 WHERE username = $1
		 `
	return r.execOne(ctx, query, username)
}

// execOne runs an UPDATE and maps zero affected rows to common.ErrorNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListLocked(ctx context.Context, now time.Time) ([]*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE locked_until > $1
		 ORDER BY locked_until
		 `

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
