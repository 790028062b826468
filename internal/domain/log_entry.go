package domain

import (
	"fmt"
	"time"
)

type LogStatus string

const (
	LogStatusTaken   LogStatus = "taken"
	LogStatusSkipped LogStatus = "skipped"
)

func NewLogStatus(s string) (LogStatus, error) {
	switch s {
	case string(LogStatusTaken), string(LogStatusSkipped):
		return LogStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidLogStatus, s)
	}
}

// Snapshot is the copy of reminder fields embedded in a log entry.
type Snapshot struct {
	MedicationName MedicationName
	Times          TimesOfDay
	Recurrence     Recurrence
}

// LogEntry is one immutable outcome record. Its reminder id is a soft
// reference: the reminder may no longer exist.
type LogEntry struct {
	id            LogEntryID
	reminderID    ReminderID
	scheduledTime time.Time
	status        LogStatus
	actionTime    time.Time
	snapshot      Snapshot
}

// NewLogEntry builds an entry without an id; ActionLog.Append assigns one.
func NewLogEntry(
	reminder *Reminder,
	scheduledTime time.Time,
	status LogStatus,
	actionTime time.Time,
) (*LogEntry, error) {
	if _, err := NewLogStatus(string(status)); err != nil {
		return nil, err
	}

	return &LogEntry{
		reminderID:    reminder.ID(),
		scheduledTime: scheduledTime,
		status:        status,
		actionTime:    actionTime,
		snapshot:      reminder.Snapshot(),
	}, nil
}

func ReconstituteLogEntry(
	id LogEntryID,
	reminderID ReminderID,
	scheduledTime time.Time,
	status LogStatus,
	actionTime time.Time,
	snapshot Snapshot,
) *LogEntry {
	return &LogEntry{
		id:            id,
		reminderID:    reminderID,
		scheduledTime: scheduledTime,
		status:        status,
		actionTime:    actionTime,
		snapshot:      snapshot,
	}
}

// WithID returns a copy of the entry carrying id.
func (l *LogEntry) WithID(id LogEntryID) *LogEntry {
	c := *l
	c.id = id

	return &c
}

func (l *LogEntry) ID() LogEntryID {
	return l.id
}

func (l *LogEntry) ReminderID() ReminderID {
	return l.reminderID
}

func (l *LogEntry) ScheduledTime() time.Time {
	return l.scheduledTime
}

func (l *LogEntry) Status() LogStatus {
	return l.status
}

func (l *LogEntry) ActionTime() time.Time {
	return l.actionTime
}

func (l *LogEntry) Snapshot() Snapshot {
	return l.snapshot
}
