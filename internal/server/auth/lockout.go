package auth

import (
	"time"

	"github.com/dmitrijs2005/bizledger/internal/server/models"
)

// LockoutPolicy is the brute-force lockout state machine. It only mutates
// the account it is handed; persisting the result is up to the caller.
type LockoutPolicy struct {
	maxFailedAttempts int
	lockoutDuration   time.Duration
	now               func() time.Time
}

// NewLockoutPolicy returns a policy that locks an account for
// lockoutDuration once maxFailedAttempts consecutive failures accumulate.
// A nil now means time.Now.
func NewLockoutPolicy(maxFailedAttempts int, lockoutDuration time.Duration, now func() time.Time) *LockoutPolicy {
	if now == nil {
		now = time.Now
	}
	return &LockoutPolicy{
		maxFailedAttempts: maxFailedAttempts,
		lockoutDuration:   lockoutDuration,
		now:               now,
	}
}

// OnFailure records a failed attempt and locks the account when the
// threshold is reached. An expired lock is not cleared here, so a failure
// after expiry may lock the account again straight away.
func (p *LockoutPolicy) OnFailure(a *models.Account) {
	a.FailedAttempts++
	if a.FailedAttempts >= p.maxFailedAttempts {
		until := p.now().Add(p.lockoutDuration)
		a.LockedUntil = &until
	}
}

// OnSuccess resets the failure counter, clears any lock and stamps the
// login time.
func (p *LockoutPolicy) OnSuccess(a *models.Account) {
	now := p.now()
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.LastLoginAt = &now
}

// IsLocked reports whether the account's lock expiry lies strictly in the
// future. It never modifies the account.
func (p *LockoutPolicy) IsLocked(a *models.Account) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(p.now())
}
