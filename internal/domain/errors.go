package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrHubFull           = errors.New("hub is full")
	ErrAlreadyMember     = errors.New("already a member of this hub")
	ErrHubNotActive      = errors.New("hub is not active")
	ErrNotMember         = errors.New("not a member of this hub")
	ErrTransfer          = errors.New("token transfer failed")
	ErrStorageConflict   = errors.New("storage conflict")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Invalid wraps ErrValidation with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
