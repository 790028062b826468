package app

import (
	"time"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

type RecurrenceOutput struct {
	Type          string
	Weekdays      []int
	IntervalHours int
	IntervalDays  int
}

type ReminderOutput struct {
	ID             string
	MedicationName string
	Times          []string
	Recurrence     RecurrenceOutput
	RRule          string
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReminderResult is returned by operations that also (re)arm triggers.
// Warnings lists slots the backend refused; they stay unscheduled until the
// next reconciliation pass.
type ReminderResult struct {
	Reminder ReminderOutput
	Warnings []string
}

type RemindersOutput struct {
	Reminders []ReminderOutput
	Count     int32
}

type LogEntryOutput struct {
	ID             string
	ReminderID     string
	ScheduledTime  time.Time
	Status         string
	ActionTime     time.Time
	MedicationName string
	Times          []string
	Recurrence     RecurrenceOutput
}

type LogEntriesOutput struct {
	Logs  []LogEntryOutput
	Count int32
}

type OccurrenceOutput struct {
	ReminderID     string
	MedicationName string
	SlotID         string
	TimeOfDay      string
	ScheduledTime  time.Time
}

type TriggerOutput struct {
	ID      string
	FiresAt time.Time
	Title   string
}

type SnoozeOutput struct {
	TriggerID string
	FiresAt   time.Time
}

// ClearDataOutput counts what ClearAllData removed.
type ClearDataOutput struct {
	Reminders int
	Logs      int
	Cancelled int
}

type StatusOutput struct {
	Live      []TriggerOutput
	Slots     []SlotStatus
	Pending   []PendingOccurrence
	Escalated []SlotStatus
}

func FromRecurrence(r domain.Recurrence) RecurrenceOutput {
	out := RecurrenceOutput{Type: string(r.Kind())}

	switch r.Kind() {
	case domain.RecurrenceWeekdays:
		for _, d := range r.Weekdays() {
			out.Weekdays = append(out.Weekdays, int(d))
		}
	case domain.RecurrenceIntervalHours:
		out.IntervalHours = r.IntervalHours()
	case domain.RecurrenceCustomDays:
		out.IntervalDays = r.IntervalDays()
	}

	return out
}

func FromEntity(r *domain.Reminder) ReminderOutput {
	return ReminderOutput{
		ID:             r.ID().String(),
		MedicationName: r.MedicationName().String(),
		Times:          r.Times().Strings(),
		Recurrence:     FromRecurrence(r.Recurrence()),
		RRule:          r.Recurrence().RRule(r.Times()),
		Enabled:        r.IsEnabled(),
		CreatedAt:      r.CreatedAt(),
		UpdatedAt:      r.UpdatedAt(),
	}
}

func FromEntities(reminders []*domain.Reminder) RemindersOutput {
	outputs := make([]ReminderOutput, 0, len(reminders))
	for _, r := range reminders {
		outputs = append(outputs, FromEntity(r))
	}

	return RemindersOutput{
		Reminders: outputs,
		Count:     int32(len(outputs)), //nolint:gosec
	}
}

func FromLogEntry(l *domain.LogEntry) LogEntryOutput {
	snapshot := l.Snapshot()

	return LogEntryOutput{
		ID:             l.ID().String(),
		ReminderID:     l.ReminderID().String(),
		ScheduledTime:  l.ScheduledTime(),
		Status:         string(l.Status()),
		ActionTime:     l.ActionTime(),
		MedicationName: snapshot.MedicationName.String(),
		Times:          snapshot.Times.Strings(),
		Recurrence:     FromRecurrence(snapshot.Recurrence),
	}
}

func FromLogEntries(entries []*domain.LogEntry) LogEntriesOutput {
	outputs := make([]LogEntryOutput, 0, len(entries))
	for _, e := range entries {
		outputs = append(outputs, FromLogEntry(e))
	}

	return LogEntriesOutput{
		Logs:  outputs,
		Count: int32(len(outputs)), //nolint:gosec
	}
}
