package domain

import (
	"github.com/google/uuid"
)

type ReminderID struct {
	value uuid.UUID
}

func NewReminderID() ReminderID {
	return ReminderID{value: uuid.New()}
}

func ReminderIDFromString(s string) (ReminderID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ReminderID{}, ErrInvalidReminderID
	}

	return ReminderID{value: id}, nil
}

func ReminderIDFromUUID(id uuid.UUID) ReminderID {
	return ReminderID{value: id}
}

func (r ReminderID) String() string {
	return r.value.String()
}

func (r ReminderID) UUID() uuid.UUID {
	return r.value
}

func (r ReminderID) IsZero() bool {
	return r.value == uuid.Nil
}

func (r ReminderID) Equals(other ReminderID) bool {
	return r.value == other.value
}

type LogEntryID struct {
	value uuid.UUID
}

func NewLogEntryID() LogEntryID {
	return LogEntryID{value: uuid.New()}
}

func LogEntryIDFromString(s string) (LogEntryID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return LogEntryID{}, ErrInvalidLogEntryID
	}

	return LogEntryID{value: id}, nil
}

func (l LogEntryID) String() string {
	return l.value.String()
}

func (l LogEntryID) IsZero() bool {
	return l.value == uuid.Nil
}
