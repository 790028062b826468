package domain

import (
	"time"
)

type Reminder struct {
	id             ReminderID
	medicationName MedicationName
	times          TimesOfDay
	recurrence     Recurrence
	enabled        bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewReminder creates a reminder with a fresh id. Timestamps are assigned by
// the store when the reminder is first persisted.
func NewReminder(
	name MedicationName,
	times TimesOfDay,
	recurrence Recurrence,
	enabled bool,
) (*Reminder, error) {
	if name.IsZero() {
		return nil, ErrEmptyMedicationName
	}

	if times.Count() == 0 {
		return nil, ErrEmptyTimes
	}

	if recurrence.IsZero() {
		return nil, ErrInvalidRecurrence
	}

	return &Reminder{
		id:             NewReminderID(),
		medicationName: name,
		times:          times,
		recurrence:     recurrence,
		enabled:        enabled,
	}, nil
}

func ReconstituteReminder(
	id ReminderID,
	name MedicationName,
	times TimesOfDay,
	recurrence Recurrence,
	enabled bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Reminder {
	return &Reminder{
		id:             id,
		medicationName: name,
		times:          times,
		recurrence:     recurrence,
		enabled:        enabled,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (r *Reminder) Rename(name MedicationName) error {
	if name.IsZero() {
		return ErrEmptyMedicationName
	}

	r.medicationName = name

	return nil
}

func (r *Reminder) ChangeTimes(times TimesOfDay) error {
	if times.Count() == 0 {
		return ErrEmptyTimes
	}

	r.times = times

	return nil
}

func (r *Reminder) ChangeRecurrence(recurrence Recurrence) error {
	if recurrence.IsZero() {
		return ErrInvalidRecurrence
	}

	r.recurrence = recurrence

	return nil
}

func (r *Reminder) SetEnabled(enabled bool) {
	r.enabled = enabled
}

// Stamped returns a copy carrying the given persistence timestamps.
func (r *Reminder) Stamped(createdAt, updatedAt time.Time) *Reminder {
	c := *r
	c.times = append(TimesOfDay(nil), r.times...)
	c.createdAt = createdAt
	c.updatedAt = updatedAt

	return &c
}

// Snapshot captures the fields a log entry keeps after the reminder is gone.
func (r *Reminder) Snapshot() Snapshot {
	return Snapshot{
		MedicationName: r.medicationName,
		Times:          append(TimesOfDay(nil), r.times...),
		Recurrence:     r.recurrence,
	}
}

func (r *Reminder) SlotID(index int) SlotID {
	return NewSlotID(r.id, index)
}

func (r *Reminder) ID() ReminderID {
	return r.id
}

func (r *Reminder) MedicationName() MedicationName {
	return r.medicationName
}

func (r *Reminder) Times() TimesOfDay {
	return r.times
}

func (r *Reminder) Recurrence() Recurrence {
	return r.recurrence
}

func (r *Reminder) IsEnabled() bool {
	return r.enabled
}

func (r *Reminder) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Reminder) UpdatedAt() time.Time {
	return r.updatedAt
}
