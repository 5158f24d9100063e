package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned for writes attempted while the user's freeze mode is active.
	ErrFrozen = errors.New("activity log is frozen")
	// ErrEntryNotFound is returned when an entry does not exist or belongs to another user.
	ErrEntryNotFound = errors.New("activity entry not found")
)

// ValidationError reports a malformed input field. Nothing is persisted when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
