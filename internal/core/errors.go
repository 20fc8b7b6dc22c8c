package core

import (
	"errors"
	"fmt"
)

// Sentinel error categories. The HTTP layer maps these to status codes;
// everything below the handlers talks in terms of this taxonomy via
// errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")
)

// Field-level validation errors, all wrapping ErrValidation.
var (
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidYear        = fmt.Errorf("%w: invalid year", ErrValidation)
	ErrInvalidAccountType = fmt.Errorf("%w: invalid account type", ErrValidation)
	ErrInvalidEntryType   = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrEmptyName          = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmptyCurrency      = fmt.Errorf("%w: currency is required", ErrValidation)
	ErrEmptyEmail         = fmt.Errorf("%w: email is required", ErrValidation)
	ErrEmptyPassword      = fmt.Errorf("%w: password is required", ErrValidation)
)

// NotFoundf wraps ErrNotFound with the missing resource's name, e.g.
// "account not found".
func NotFoundf(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Forbiddenf wraps ErrForbidden with a reason.
func Forbiddenf(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Conflictf wraps ErrConflict with a reason.
func Conflictf(reason string) error {
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}
