package app

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("resource not found")
	ErrStorage       = errors.New("storage error")
	ErrInternalError = errors.New("internal error")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

// BackendSchedulingError reports that a trigger could not be armed. The
// affected slot is left unscheduled for the next reconciliation pass.
type BackendSchedulingError struct {
	TriggerID string
	Err       error
}

func (e *BackendSchedulingError) Error() string {
	return fmt.Sprintf("backend scheduling error: %s: %v", e.TriggerID, e.Err)
}

func (e *BackendSchedulingError) Unwrap() error {
	return e.Err
}

func NewBackendSchedulingError(triggerID string, err error) *BackendSchedulingError {
	return &BackendSchedulingError{
		TriggerID: triggerID,
		Err:       err,
	}
}

func IsBackendSchedulingError(err error) bool {
	var backendErr *BackendSchedulingError

	return errors.As(err, &backendErr)
}

// BackendSchedulingErrors flattens err into the scheduling failures it
// carries, following errors.Join trees.
func BackendSchedulingErrors(err error) []*BackendSchedulingError {
	if err == nil {
		return nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*BackendSchedulingError
		for _, e := range joined.Unwrap() {
			out = append(out, BackendSchedulingErrors(e)...)
		}

		return out
	}

	var backendErr *BackendSchedulingError
	if errors.As(err, &backendErr) {
		return []*BackendSchedulingError{backendErr}
	}

	return nil
}
