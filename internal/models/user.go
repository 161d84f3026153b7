package models

import (
	"time"
)

// AccountStatus is the lifecycle state of a user account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusLocked   AccountStatus = "LOCKED"
	StatusDisabled AccountStatus = "DISABLED"
)

// ParseAccountStatus returns the status for s or false if s is not one.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	switch st := AccountStatus(s); st {
	case StatusActive, StatusLocked, StatusDisabled:
		return st, true
	}
	return "", false
}

type User struct {
	ID               string
	Email            string
	PasswordHash     string
	Name             string
	Role             Role
	TenantID         *string // client id, set only for RoleClient
	Status           AccountStatus
	FailedLoginCount int
	LockUntil        *time.Time
	LastLoginAt      *time.Time
	LastLoginIP      *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LoginState is the subset of User mutated by login attempts.
type LoginState struct {
	Status           AccountStatus
	FailedLoginCount int
	LockUntil        *time.Time
	LastLoginAt      *time.Time
	LastLoginIP      *string
}

// LoginState extracts the lockout fields of u.
func (u *User) LoginState() LoginState {
	return LoginState{
		Status:           u.Status,
		FailedLoginCount: u.FailedLoginCount,
		LockUntil:        u.LockUntil,
		LastLoginAt:      u.LastLoginAt,
		LastLoginIP:      u.LastLoginIP,
	}
}

// ApplyLoginState copies s back onto u.
func (u *User) ApplyLoginState(s LoginState) {
	u.Status = s.Status
	u.FailedLoginCount = s.FailedLoginCount
	u.LockUntil = s.LockUntil
	u.LastLoginAt = s.LastLoginAt
	u.LastLoginIP = s.LastLoginIP
}

// UserResponse is the public JSON shape of an account.
type UserResponse struct {
	ID               string        `json:"id"`
	Email            string        `json:"email"`
	Name             string        `json:"name"`
	Role             Role          `json:"role"`
	TenantID         *string       `json:"tenantId,omitempty"`
	Status           AccountStatus `json:"status"`
	FailedLoginCount int           `json:"failedLoginCount"`
	LockUntil        *time.Time    `json:"lockUntil,omitempty"`
	LastLoginAt      *time.Time    `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// ToResponse converts a user model to its response DTO.
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role,
		TenantID:         u.TenantID,
		Status:           u.Status,
		FailedLoginCount: u.FailedLoginCount,
		LockUntil:        u.LockUntil,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
	}
}
