package app

import "time"

type RecurrenceInput struct {
	Type          string
	Weekdays      []int
	IntervalHours int
	IntervalDays  int
}

type CreateReminderInput struct {
	MedicationName string
	Times          []string
	Recurrence     RecurrenceInput
	// Enabled defaults to true when nil.
	Enabled *bool
}

// UpdateReminderInput merges the non-nil fields into the stored reminder.
type UpdateReminderInput struct {
	ID             string
	MedicationName *string
	Times          []string
	Recurrence     *RecurrenceInput
	Enabled        *bool
}

type SetEnabledInput struct {
	ID      string
	Enabled bool
}

type DeleteReminderInput struct {
	ID string
}

type RecordOutcomeInput struct {
	ReminderID    string
	ScheduledTime time.Time
	Status        string
}

type SnoozeInput struct {
	ReminderID    string
	ScheduledTime time.Time
}

type ListLogsInput struct {
	ReminderID string
	// Limit caps the number of newest entries returned; zero means the
	// default page size.
	Limit int
}

type DeleteLogInput struct {
	ID string
}

type DeleteLogsForReminderInput struct {
	ReminderID string
}

type DeliverEventInput struct {
	Type      string
	TriggerID string
	FiresAt   time.Time
	Action    string
	Data      map[string]string
}
