package domain

import (
	"context"
)

// ReminderRepository is the durable keyed collection of reminder definitions.
// Mutations are serialized per collection and either fully persist or leave
// the previous state visible.
type ReminderRepository interface {
	// Upsert stores r. A new id gets createdAt = updatedAt = now; an existing
	// one keeps its createdAt and gets a strictly later updatedAt.
	Upsert(ctx context.Context, r *Reminder) (*Reminder, error)
	Get(ctx context.Context, id ReminderID) (*Reminder, error)
	List(ctx context.Context) ([]*Reminder, error)
	Delete(ctx context.Context, id ReminderID) error
	SetEnabled(ctx context.Context, id ReminderID, enabled bool) (*Reminder, error)
}

// ActionLogRepository is the append-only history of occurrence outcomes.
type ActionLogRepository interface {
	Append(ctx context.Context, entry *LogEntry) (*LogEntry, error)
	// List returns every entry, newest actionTime first.
	List(ctx context.Context) ([]*LogEntry, error)
	// ListFor returns the entries of one reminder, newest actionTime first.
	ListFor(ctx context.Context, reminderID ReminderID) ([]*LogEntry, error)
	DeleteByID(ctx context.Context, id LogEntryID) error
	// DeleteFor removes every entry of one reminder and reports how many
	// were removed.
	DeleteFor(ctx context.Context, reminderID ReminderID) (int, error)
}
