package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
)

// Account is a stored identity: credentials, role and lockout state.
type Account struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Phone          string
	Role           rbac.Role
	IsActive       bool
	EmailVerified  bool
	TenantID       *string
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins first and last name with a single space.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
