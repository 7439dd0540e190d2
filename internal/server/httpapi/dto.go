package httpapi

import (
	"time"

	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/services"
)

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	TokenType    string  `json:"tokenType"`
	ExpiresIn    int64   `json:"expiresIn"`
	UserID       string  `json:"userId"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	FullName     string  `json:"fullName"`
	Role         string  `json:"role"`
	CompanyID    *string `json:"companyId,omitempty"`
	CompanyName  string  `json:"companyName,omitempty"`
}

func newAuthResponse(res *services.AuthResult) authResponse {
	return authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    res.TokenType,
		ExpiresIn:    res.ExpiresIn,
		UserID:       res.UserID,
		Username:     res.Username,
		Email:        res.Email,
		FullName:     res.FullName,
		Role:         string(res.Role),
		CompanyID:    res.TenantID,
		CompanyName:  res.TenantName,
	}
}

type lockedAccount struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FailedAttempts int       `json:"failedAttempts"`
	LockedUntil    time.Time `json:"lockedUntil"`
}

func newLockedAccount(a *models.Account) lockedAccount {
	out := lockedAccount{
		Username:       a.Username,
		Email:          a.Email,
		FailedAttempts: a.FailedAttempts,
	}
	if a.LockedUntil != nil {
		out.LockedUntil = *a.LockedUntil
	}
	return out
}

type roleRequest struct {
	Role string `json:"role"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}
