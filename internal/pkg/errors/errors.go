package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrForbidden       = errors.New("email not permitted for admin access")
	ErrDelivery        = errors.New("failed to deliver verification code")
	ErrNoChallenge     = errors.New("no pending verification code for this email")
	ErrCodeExpired     = errors.New("verification code expired, request a new one")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrInvalid         = errors.New("invalid request")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInternal        = errors.New("internal")
)

// ThrottledError reports how long the caller must wait before the
// next code can be issued for the same email.
type ThrottledError struct {
	WaitSeconds int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("code already sent, retry in %d seconds", e.WaitSeconds)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
