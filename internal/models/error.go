package models

import (
	"errors"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Token errors. Every verification failure collapses to ErrInvalidToken.
	ErrInvalidToken = errors.New("invalid token")

	// Account state errors
	ErrAccountDisabled = errors.New("account is disabled")
	ErrAccountLocked   = errors.New("account is temporarily locked")
)

// AccountLockedError reports a refused login on a locked account.
// Until is nil for an indefinite administrative lock.
type AccountLockedError struct {
	Until *time.Time
}

func (e *AccountLockedError) Error() string {
	if e.Until == nil {
		return ErrAccountLocked.Error()
	}
	return ErrAccountLocked.Error() + " until " + e.Until.UTC().Format(time.RFC3339)
}

// Is lets errors.Is(err, ErrAccountLocked) match.
func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// ValidationError carries a client-facing message for malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

// NewValidationError returns a ValidationError matching ErrBadRequest.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
