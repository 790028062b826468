package app

import (
	"context"
)

type ReminderUseCase interface {
	CreateReminder(ctx context.Context, input CreateReminderInput) (ReminderResult, error)
	GetReminder(ctx context.Context, id string) (ReminderOutput, error)
	ListReminders(ctx context.Context) (RemindersOutput, error)
	UpdateReminder(ctx context.Context, input UpdateReminderInput) (ReminderResult, error)
	DeleteReminder(ctx context.Context, input DeleteReminderInput) error
	SetEnabled(ctx context.Context, input SetEnabledInput) (ReminderResult, error)

	RecordOutcome(ctx context.Context, input RecordOutcomeInput) (LogEntryOutput, error)
	Snooze(ctx context.Context, input SnoozeInput) (SnoozeOutput, error)
	ListLogs(ctx context.Context, input ListLogsInput) (LogEntriesOutput, error)
	DeleteLog(ctx context.Context, input DeleteLogInput) error
	DeleteLogsForReminder(ctx context.Context, input DeleteLogsForReminderInput) (int, error)

	Upcoming(ctx context.Context) ([]OccurrenceOutput, error)
	DeliverEvent(ctx context.Context, input DeliverEventInput) error
	Status(ctx context.Context) (StatusOutput, error)
	Reconcile(ctx context.Context, reason string) (ReconcileReport, error)

	CancelAllNotifications(ctx context.Context) (int, error)
	ClearAllData(ctx context.Context) (ClearDataOutput, error)
}
