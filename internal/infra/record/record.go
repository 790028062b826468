// Package record holds the persisted shapes of reminders and log entries
// shared by every store implementation.
package record

import (
	"fmt"
	"time"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

type Recurrence struct {
	Type          string `json:"type"`
	Weekdays      []int  `json:"weekdays,omitempty"`
	IntervalHours int    `json:"intervalHours,omitempty"`
	IntervalDays  int    `json:"intervalDays,omitempty"`
}

type Reminder struct {
	ID             string     `json:"id"`
	MedicationName string     `json:"medicationName"`
	Times          []string   `json:"times"`
	Recurrence     Recurrence `json:"recurrence"`
	Enabled        bool       `json:"enabled"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Log duplicates the reminder's name, times and recurrence as they were at
// append time.
type Log struct {
	ID             string     `json:"id"`
	ReminderID     string     `json:"reminderId"`
	ScheduledTime  time.Time  `json:"scheduledTime"`
	Status         string     `json:"status"`
	ActionTime     time.Time  `json:"actionTime"`
	MedicationName string     `json:"medicationName"`
	Times          []string   `json:"times"`
	Recurrence     Recurrence `json:"recurrence"`
}

func FromRecurrence(r domain.Recurrence) Recurrence {
	rec := Recurrence{
		Type:          string(r.Kind()),
		IntervalHours: r.IntervalHours(),
		IntervalDays:  r.IntervalDays(),
	}

	if r.Kind() == domain.RecurrenceWeekdays {
		for _, d := range r.Weekdays() {
			rec.Weekdays = append(rec.Weekdays, int(d))
		}
	}

	return rec
}

// ToRecurrence applies the same defaults as user input, so records written
// without weekdays or an interval still load.
func (r Recurrence) ToRecurrence() (domain.Recurrence, error) {
	return domain.NewRecurrence(r.Type, r.Weekdays, r.IntervalHours, r.IntervalDays)
}

func FromReminder(r *domain.Reminder) Reminder {
	return Reminder{
		ID:             r.ID().String(),
		MedicationName: r.MedicationName().String(),
		Times:          r.Times().Strings(),
		Recurrence:     FromRecurrence(r.Recurrence()),
		Enabled:        r.IsEnabled(),
		CreatedAt:      r.CreatedAt(),
		UpdatedAt:      r.UpdatedAt(),
	}
}

func (r Reminder) ToEntity() (*domain.Reminder, error) {
	id, err := domain.ReminderIDFromString(r.ID)
	if err != nil {
		return nil, err
	}

	name, times, recurrence, err := decodeSnapshot(r.MedicationName, r.Times, r.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("reminder %s: %w", r.ID, err)
	}

	return domain.ReconstituteReminder(
		id,
		name,
		times,
		recurrence,
		r.Enabled,
		r.CreatedAt,
		r.UpdatedAt,
	), nil
}

func FromLogEntry(e *domain.LogEntry) Log {
	snap := e.Snapshot()

	return Log{
		ID:             e.ID().String(),
		ReminderID:     e.ReminderID().String(),
		ScheduledTime:  e.ScheduledTime(),
		Status:         string(e.Status()),
		ActionTime:     e.ActionTime(),
		MedicationName: snap.MedicationName.String(),
		Times:          snap.Times.Strings(),
		Recurrence:     FromRecurrence(snap.Recurrence),
	}
}

func (l Log) ToEntity() (*domain.LogEntry, error) {
	id, err := domain.LogEntryIDFromString(l.ID)
	if err != nil {
		return nil, err
	}

	reminderID, err := domain.ReminderIDFromString(l.ReminderID)
	if err != nil {
		return nil, err
	}

	status, err := domain.NewLogStatus(l.Status)
	if err != nil {
		return nil, err
	}

	name, times, recurrence, err := decodeSnapshot(l.MedicationName, l.Times, l.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", l.ID, err)
	}

	return domain.ReconstituteLogEntry(
		id,
		reminderID,
		l.ScheduledTime,
		status,
		l.ActionTime,
		domain.Snapshot{
			MedicationName: name,
			Times:          times,
			Recurrence:     recurrence,
		},
	), nil
}

func decodeSnapshot(
	rawName string,
	rawTimes []string,
	rawRecurrence Recurrence,
) (domain.MedicationName, domain.TimesOfDay, domain.Recurrence, error) {
	name, err := domain.NewMedicationName(rawName)
	if err != nil {
		return domain.MedicationName{}, nil, domain.Recurrence{}, err
	}

	times, err := domain.ParseTimesOfDay(rawTimes)
	if err != nil {
		return domain.MedicationName{}, nil, domain.Recurrence{}, err
	}

	recurrence, err := rawRecurrence.ToRecurrence()
	if err != nil {
		return domain.MedicationName{}, nil, domain.Recurrence{}, err
	}

	return name, times, recurrence, nil
}
