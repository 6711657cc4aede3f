package core

import (
	"errors"
	"fmt"
)

// Error classes. Concrete errors wrap one of these so callers can branch
// with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrReferentialIntegrity = errors.New("entity is still referenced")
	ErrTransientNetwork     = errors.New("network error")
	ErrAuthentication       = errors.New("authentication required")
	ErrNotFound             = errors.New("not found")
)

var (
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrMissingCategory      = errors.New("missing category")
	ErrMissingAccount       = errors.New("missing account")
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction type")
)

type validationError struct {
	err error
}

func (e *validationError) Error() string {
	return e.err.Error()
}

func (e *validationError) Unwrap() []error {
	return []error{ErrValidation, e.err}
}

func validation(err error) error {
	return &validationError{err: err}
}

// IsValidation reports whether err was detected before reaching the network.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// UserMessage maps an error to the message a UI shows for it.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return fmt.Sprintf("Invalid data: %v", err)
	case errors.Is(err, ErrReferentialIntegrity):
		return "Cannot delete: it is still in use by transactions"
	case errors.Is(err, ErrAuthentication):
		return "Your session has expired, please sign in again"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Something went wrong, please try again"
	}
}
