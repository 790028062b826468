package domain

import (
	"errors"
	"fmt"
)

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrLogEntryNotFound = errors.New("log entry not found")

	ErrInvalidReminderID = errors.New("invalid reminder ID")
	ErrInvalidLogEntryID = errors.New("invalid log entry ID")
	ErrInvalidSlotID     = errors.New("invalid slot ID")

	ErrEmptyMedicationName = errors.New("medication name cannot be empty")
	ErrInvalidTimeOfDay    = errors.New("time must be in HH:MM 24-hour format")
	ErrEmptyTimes          = errors.New("at least one time is required")

	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrEmptyWeekdays     = errors.New("weekdays recurrence requires at least one day")
	ErrInvalidInterval   = errors.New("interval must be at least 1")

	ErrInvalidLogStatus = errors.New("invalid log status")
)

// StorageError reports a persistence failure. The store that returns it has
// left its previous durable state untouched.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var storageErr *StorageError

	return errors.As(err, &storageErr)
}
