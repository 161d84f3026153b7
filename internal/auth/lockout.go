package auth

import (
	"time"

	"github.com/monroy-qms/api/internal/models"
)

// LockoutPolicy configures when repeated failures lock an account.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy locks after 7 consecutive failures for 30 minutes.
var DefaultLockoutPolicy = LockoutPolicy{Threshold: 7, Duration: 30 * time.Minute}

// CheckLoginAllowed reports whether a login attempt may proceed to password
// verification. A LOCKED account with no lockUntil is locked until an
// administrator reactivates it.
func CheckLoginAllowed(s models.LoginState, now time.Time) error {
	switch s.Status {
	case models.StatusDisabled:
		return models.ErrAccountDisabled
	case models.StatusLocked:
		if s.LockUntil == nil || s.LockUntil.After(now) {
			return &models.AccountLockedError{Until: s.LockUntil}
		}
	}
	return nil
}

// normalize treats a timed lock that has run out as a fresh ACTIVE account.
func normalize(s models.LoginState, now time.Time) models.LoginState {
	if s.Status == models.StatusLocked && s.LockUntil != nil && !s.LockUntil.After(now) {
		s.Status = models.StatusActive
		s.FailedLoginCount = 0
		s.LockUntil = nil
	}
	return s
}

// ApplyLoginOutcome returns the state after a password check on an account
// that CheckLoginAllowed admitted. It has no side effects.
func ApplyLoginOutcome(s models.LoginState, success bool, ip string, now time.Time, policy LockoutPolicy) models.LoginState {
	s = normalize(s, now)

	if success {
		at := now
		s.Status = models.StatusActive
		s.FailedLoginCount = 0
		s.LockUntil = nil
		s.LastLoginAt = &at
		if ip != "" {
			s.LastLoginIP = &ip
		}
		return s
	}

	s.FailedLoginCount++
	if s.FailedLoginCount >= policy.Threshold {
		until := now.Add(policy.Duration)
		s.Status = models.StatusLocked
		s.LockUntil = &until
	}
	return s
}

// JustLocked reports whether the transition from before to after locked the account.
func JustLocked(before, after models.LoginState) bool {
	if after.Status != models.StatusLocked || after.LockUntil == nil {
		return false
	}
	return before.LockUntil == nil || !before.LockUntil.Equal(*after.LockUntil)
}
