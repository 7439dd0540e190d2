package services

import "github.com/dmitrijs2005/bizledger/internal/server/rbac"

// LoginInput is the login request: a username or email plus the password.
type LoginInput struct {
	Identifier string
	Password   string
}

// RegisterInput is a self-registration request. An empty Role means USER;
// TenantID is optional.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	TenantID  string
}

// AuthResult is returned by every operation that starts a session.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiresIn is the access token lifetime in milliseconds.
	ExpiresIn  int64
	UserID     string
	Username   string
	Email      string
	FullName   string
	Role       rbac.Role
	TenantID   *string
	TenantName string
}
