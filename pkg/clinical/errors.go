package clinical

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrPatientNotFound  = fmt.Errorf("patient %w", ErrNotFound)
	ErrNoClinicalRecord = fmt.Errorf("clinical record %w", ErrNotFound)

	// ErrStoreUnavailable marks failures of the relational store itself, as
	// opposed to missing rows.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func invalid(format string, args ...interface{}) error {
	return ValidationError{reason: fmt.Errorf(format, args...)}
}
