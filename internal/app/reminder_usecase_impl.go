package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/pubsub"
)

const defaultLogLimit = 50

type reminderUseCaseImpl struct {
	sc         SchedulerContext
	scheduler  *NotificationScheduler
	reconciler *ReconciliationLoop
	publisher  pubsub.Publisher
}

func NewReminderUseCase(
	sc SchedulerContext,
	scheduler *NotificationScheduler,
	reconciler *ReconciliationLoop,
	publisher pubsub.Publisher,
) ReminderUseCase {
	return &reminderUseCaseImpl{
		sc:         sc,
		scheduler:  scheduler,
		reconciler: reconciler,
		publisher:  publisher,
	}
}

func (uc *reminderUseCaseImpl) CreateReminder(ctx context.Context, input CreateReminderInput) (ReminderResult, error) {
	slog.DebugContext(ctx, "creating reminder",
		slog.String("medication_name", input.MedicationName),
		slog.Int("times_count", len(input.Times)),
		slog.String("recurrence", input.Recurrence.Type),
	)

	name, err := domain.NewMedicationName(input.MedicationName)
	if err != nil {
		return ReminderResult{}, NewValidationError("medication_name", err.Error())
	}

	times, err := parseTimes(input.Times)
	if err != nil {
		return ReminderResult{}, err
	}

	recurrence, err := parseRecurrence(input.Recurrence)
	if err != nil {
		return ReminderResult{}, err
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	reminder, err := domain.NewReminder(name, times, recurrence, enabled)
	if err != nil {
		return ReminderResult{}, NewValidationError("reminder", err.Error())
	}

	saved, err := uc.sc.Reminders.Upsert(ctx, reminder)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save reminder",
			slog.String("reminder_id", reminder.ID().String()),
			slog.String("error", err.Error()),
		)

		return ReminderResult{}, toAppError(err)
	}

	warnings := uc.rearm(ctx, saved)

	slog.InfoContext(ctx, "reminder created",
		slog.String("reminder_id", saved.ID().String()),
		slog.Int("warnings", len(warnings)),
	)

	return ReminderResult{Reminder: FromEntity(saved), Warnings: warnings}, nil
}

func (uc *reminderUseCaseImpl) GetReminder(ctx context.Context, id string) (ReminderOutput, error) {
	reminderID, err := domain.ReminderIDFromString(id)
	if err != nil {
		return ReminderOutput{}, NewValidationError("id", err.Error())
	}

	reminder, err := uc.sc.Reminders.Get(ctx, reminderID)
	if err != nil {
		return ReminderOutput{}, toAppError(err)
	}

	return FromEntity(reminder), nil
}

func (uc *reminderUseCaseImpl) ListReminders(ctx context.Context) (RemindersOutput, error) {
	reminders, err := uc.sc.Reminders.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list reminders",
			slog.String("error", err.Error()),
		)

		return RemindersOutput{}, toAppError(err)
	}

	return FromEntities(reminders), nil
}

func (uc *reminderUseCaseImpl) UpdateReminder(ctx context.Context, input UpdateReminderInput) (ReminderResult, error) {
	slog.DebugContext(ctx, "updating reminder",
		slog.String("reminder_id", input.ID),
	)

	reminderID, err := domain.ReminderIDFromString(input.ID)
	if err != nil {
		return ReminderResult{}, NewValidationError("id", err.Error())
	}

	reminder, err := uc.sc.Reminders.Get(ctx, reminderID)
	if err != nil {
		return ReminderResult{}, toAppError(err)
	}

	if input.MedicationName != nil {
		name, err := domain.NewMedicationName(*input.MedicationName)
		if err != nil {
			return ReminderResult{}, NewValidationError("medication_name", err.Error())
		}

		if err := reminder.Rename(name); err != nil {
			return ReminderResult{}, NewValidationError("medication_name", err.Error())
		}
	}

	if input.Times != nil {
		times, err := parseTimes(input.Times)
		if err != nil {
			return ReminderResult{}, err
		}

		if err := reminder.ChangeTimes(times); err != nil {
			return ReminderResult{}, NewValidationError("times", err.Error())
		}
	}

	if input.Recurrence != nil {
		recurrence, err := parseRecurrence(*input.Recurrence)
		if err != nil {
			return ReminderResult{}, err
		}

		if err := reminder.ChangeRecurrence(recurrence); err != nil {
			return ReminderResult{}, NewValidationError("recurrence", err.Error())
		}
	}

	if input.Enabled != nil {
		reminder.SetEnabled(*input.Enabled)
	}

	saved, err := uc.sc.Reminders.Upsert(ctx, reminder)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update reminder",
			slog.String("reminder_id", input.ID),
			slog.String("error", err.Error()),
		)

		return ReminderResult{}, toAppError(err)
	}

	warnings := uc.rearm(ctx, saved)

	slog.InfoContext(ctx, "reminder updated",
		slog.String("reminder_id", input.ID),
		slog.Bool("enabled", saved.IsEnabled()),
	)

	return ReminderResult{Reminder: FromEntity(saved), Warnings: warnings}, nil
}

func (uc *reminderUseCaseImpl) DeleteReminder(ctx context.Context, input DeleteReminderInput) error {
	slog.DebugContext(ctx, "deleting reminder",
		slog.String("reminder_id", input.ID),
	)

	reminderID, err := domain.ReminderIDFromString(input.ID)
	if err != nil {
		return NewValidationError("id", err.Error())
	}

	reminder, err := uc.sc.Reminders.Get(ctx, reminderID)
	if err != nil {
		return toAppError(err)
	}

	if err := uc.sc.Reminders.Delete(ctx, reminderID); err != nil {
		slog.ErrorContext(ctx, "failed to delete reminder",
			slog.String("reminder_id", input.ID),
			slog.String("error", err.Error()),
		)

		return toAppError(err)
	}

	// Cancellation is best effort; reconciliation cancels whatever is left.
	if err := uc.scheduler.Disarm(ctx, reminderID); err != nil {
		slog.WarnContext(ctx, "failed to cancel triggers of deleted reminder",
			slog.String("reminder_id", input.ID),
			slog.String("error", err.Error()),
		)
	}

	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishReminderDeleted(ctx, pubsub.ReminderDeletedEvent{
			ReminderID:     input.ID,
			MedicationName: reminder.MedicationName().String(),
			DeletedAt:      uc.sc.now(),
		}); pubErr != nil {
			slog.ErrorContext(ctx, "failed to publish reminder deleted event",
				slog.String("reminder_id", input.ID),
				slog.String("error", pubErr.Error()),
			)
		}
	}

	slog.InfoContext(ctx, "reminder deleted",
		slog.String("reminder_id", input.ID),
	)

	return nil
}

func (uc *reminderUseCaseImpl) SetEnabled(ctx context.Context, input SetEnabledInput) (ReminderResult, error) {
	reminderID, err := domain.ReminderIDFromString(input.ID)
	if err != nil {
		return ReminderResult{}, NewValidationError("id", err.Error())
	}

	saved, err := uc.sc.Reminders.SetEnabled(ctx, reminderID, input.Enabled)
	if err != nil {
		return ReminderResult{}, toAppError(err)
	}

	warnings := uc.rearm(ctx, saved)

	slog.InfoContext(ctx, "reminder enabled state changed",
		slog.String("reminder_id", input.ID),
		slog.Bool("enabled", input.Enabled),
	)

	return ReminderResult{Reminder: FromEntity(saved), Warnings: warnings}, nil
}

func (uc *reminderUseCaseImpl) RecordOutcome(ctx context.Context, input RecordOutcomeInput) (LogEntryOutput, error) {
	reminderID, err := domain.ReminderIDFromString(input.ReminderID)
	if err != nil {
		return LogEntryOutput{}, NewValidationError("reminder_id", err.Error())
	}

	status, err := domain.NewLogStatus(input.Status)
	if err != nil {
		return LogEntryOutput{}, NewValidationError("status", err.Error())
	}

	if input.ScheduledTime.IsZero() {
		return LogEntryOutput{}, NewValidationError("scheduled_time", "scheduled time is required")
	}

	entry, err := uc.scheduler.RecordOutcome(ctx, reminderID, input.ScheduledTime, status)
	if err != nil {
		return LogEntryOutput{}, toAppError(err)
	}

	return FromLogEntry(entry), nil
}

func (uc *reminderUseCaseImpl) Snooze(ctx context.Context, input SnoozeInput) (SnoozeOutput, error) {
	reminderID, err := domain.ReminderIDFromString(input.ReminderID)
	if err != nil {
		return SnoozeOutput{}, NewValidationError("reminder_id", err.Error())
	}

	scheduledTime := input.ScheduledTime
	if scheduledTime.IsZero() {
		scheduledTime = uc.sc.now()
	}

	trigger, err := uc.scheduler.Snooze(ctx, reminderID, scheduledTime)
	if err != nil {
		return SnoozeOutput{}, toAppError(err)
	}

	return SnoozeOutput{TriggerID: trigger.ID, FiresAt: trigger.FiresAt}, nil
}

func (uc *reminderUseCaseImpl) ListLogs(ctx context.Context, input ListLogsInput) (LogEntriesOutput, error) {
	if input.Limit < 0 {
		return LogEntriesOutput{}, NewValidationError("limit", "limit must not be negative")
	}

	var (
		entries []*domain.LogEntry
		err     error
	)

	limit := input.Limit

	if input.ReminderID == "" {
		entries, err = uc.sc.Logs.List(ctx)
	} else {
		reminderID, parseErr := domain.ReminderIDFromString(input.ReminderID)
		if parseErr != nil {
			return LogEntriesOutput{}, NewValidationError("reminder_id", parseErr.Error())
		}

		if limit == 0 {
			limit = defaultLogLimit
		}

		entries, err = uc.sc.Logs.ListFor(ctx, reminderID)
	}

	if err != nil {
		slog.ErrorContext(ctx, "failed to list logs",
			slog.String("reminder_id", input.ReminderID),
			slog.String("error", err.Error()),
		)

		return LogEntriesOutput{}, toAppError(err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return FromLogEntries(entries), nil
}

func (uc *reminderUseCaseImpl) DeleteLog(ctx context.Context, input DeleteLogInput) error {
	id, err := domain.LogEntryIDFromString(input.ID)
	if err != nil {
		return NewValidationError("id", err.Error())
	}

	if err := uc.sc.Logs.DeleteByID(ctx, id); err != nil {
		return toAppError(err)
	}

	slog.InfoContext(ctx, "log entry deleted",
		slog.String("log_id", input.ID),
	)

	return nil
}

// DeleteLogsForReminder removes the history of one reminder. The reminder
// itself need not exist any more.
func (uc *reminderUseCaseImpl) DeleteLogsForReminder(ctx context.Context, input DeleteLogsForReminderInput) (int, error) {
	reminderID, err := domain.ReminderIDFromString(input.ReminderID)
	if err != nil {
		return 0, NewValidationError("reminder_id", err.Error())
	}

	n, err := uc.sc.Logs.DeleteFor(ctx, reminderID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete logs for reminder",
			slog.String("reminder_id", input.ReminderID),
			slog.String("error", err.Error()),
		)

		return 0, toAppError(err)
	}

	slog.InfoContext(ctx, "logs deleted for reminder",
		slog.String("reminder_id", input.ReminderID),
		slog.Int("count", n),
	)

	return n, nil
}

// Upcoming lists the next occurrence of every slot of every enabled
// reminder, earliest first.
func (uc *reminderUseCaseImpl) Upcoming(ctx context.Context) ([]OccurrenceOutput, error) {
	reminders, err := uc.sc.Reminders.List(ctx)
	if err != nil {
		return nil, toAppError(err)
	}

	now := uc.sc.now()
	out := make([]OccurrenceOutput, 0)

	for _, r := range reminders {
		if !r.IsEnabled() {
			continue
		}

		occurrences, err := domain.Occurrences(r, now)
		if err != nil {
			slog.WarnContext(ctx, "skipping reminder with invalid recurrence",
				slog.String("reminder_id", r.ID().String()),
				slog.String("error", err.Error()),
			)

			continue
		}

		for _, occ := range occurrences {
			out = append(out, OccurrenceOutput{
				ReminderID:     r.ID().String(),
				MedicationName: r.MedicationName().String(),
				SlotID:         occ.Slot.String(),
				TimeOfDay:      occ.TimeOfDay.String(),
				ScheduledTime:  occ.ScheduledInstant,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})

	return out, nil
}

func (uc *reminderUseCaseImpl) DeliverEvent(ctx context.Context, input DeliverEventInput) error {
	eventType := domain.NotificationEventType(input.Type)

	switch eventType {
	case domain.EventFired, domain.EventPressed:
	case domain.EventActionInvoked:
		switch domain.NotificationAction(input.Action) {
		case domain.ActionTaken, domain.ActionSkip, domain.ActionSnooze:
		default:
			return NewValidationError("action", fmt.Sprintf("unknown action %q", input.Action))
		}
	default:
		return NewValidationError("type", fmt.Sprintf("unknown event type %q", input.Type))
	}

	if input.TriggerID == "" && input.Data[dataReminderID] == "" {
		return NewValidationError("trigger_id", "trigger id or reminderId data is required")
	}

	ev := domain.NotificationEvent{
		Type:      eventType,
		TriggerID: input.TriggerID,
		FiresAt:   input.FiresAt,
		At:        uc.sc.now(),
		Action:    domain.NotificationAction(input.Action),
		Data:      input.Data,
	}

	if err := uc.scheduler.HandleEvent(ctx, ev); err != nil {
		return toAppError(err)
	}

	return nil
}

func (uc *reminderUseCaseImpl) Status(ctx context.Context) (StatusOutput, error) {
	status, err := uc.scheduler.Status(ctx)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	live := make([]TriggerOutput, 0, len(status.Live))
	for _, t := range status.Live {
		live = append(live, TriggerOutput{ID: t.ID, FiresAt: t.FiresAt, Title: t.Payload.Title})
	}

	return StatusOutput{
		Live:      live,
		Slots:     status.Slots,
		Pending:   status.Pending,
		Escalated: status.Escalated,
	}, nil
}

func (uc *reminderUseCaseImpl) Reconcile(ctx context.Context, reason string) (ReconcileReport, error) {
	if reason == "" {
		reason = ReasonManual
	}

	report, err := uc.reconciler.Reconcile(ctx, reason)
	if err != nil {
		return report, toAppError(err)
	}

	return report, nil
}

func (uc *reminderUseCaseImpl) CancelAllNotifications(ctx context.Context) (int, error) {
	n, err := uc.scheduler.DisarmAll(ctx)
	if err != nil {
		return n, toAppError(err)
	}

	return n, nil
}

// ClearAllData deletes every reminder and every log entry and cancels all
// triggers. Reminders go first so a concurrent arm withdraws itself.
func (uc *reminderUseCaseImpl) ClearAllData(ctx context.Context) (ClearDataOutput, error) {
	var out ClearDataOutput

	reminders, err := uc.sc.Reminders.List(ctx)
	if err != nil {
		return out, toAppError(err)
	}

	for _, r := range reminders {
		if err := uc.sc.Reminders.Delete(ctx, r.ID()); err != nil && !errors.Is(err, domain.ErrReminderNotFound) {
			return out, toAppError(err)
		}

		out.Reminders++
	}

	cancelled, err := uc.scheduler.DisarmAll(ctx)
	out.Cancelled = cancelled

	if err != nil {
		// Reconciliation cancels the triggers of deleted reminders later.
		slog.WarnContext(ctx, "failed to cancel every trigger while clearing data",
			slog.String("error", err.Error()),
		)
	}

	logs, err := uc.sc.Logs.List(ctx)
	if err != nil {
		return out, toAppError(err)
	}

	seen := make(map[domain.ReminderID]struct{})

	for _, entry := range logs {
		id := entry.ReminderID()
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}

		n, err := uc.sc.Logs.DeleteFor(ctx, id)
		if err != nil {
			return out, toAppError(err)
		}

		out.Logs += n
	}

	slog.InfoContext(ctx, "all data cleared",
		slog.Int("reminders", out.Reminders),
		slog.Int("logs", out.Logs),
		slog.Int("cancelled", out.Cancelled),
	)

	return out, nil
}

// rearm arms the reminder's triggers and turns backend refusals into
// warnings. The reminder is already saved, so none of these fail the call.
func (uc *reminderUseCaseImpl) rearm(ctx context.Context, r *domain.Reminder) []string {
	err := uc.scheduler.Rearm(ctx, r)
	if err == nil {
		return nil
	}

	slog.WarnContext(ctx, "reminder saved but not fully scheduled",
		slog.String("reminder_id", r.ID().String()),
		slog.String("error", err.Error()),
	)

	failures := BackendSchedulingErrors(err)
	if len(failures) == 0 {
		return []string{err.Error()}
	}

	warnings := make([]string, 0, len(failures))
	for _, f := range failures {
		warnings = append(warnings, f.Error())
	}

	return warnings
}

func parseTimes(values []string) (domain.TimesOfDay, error) {
	if len(values) == 0 {
		return nil, NewValidationError("times", domain.ErrEmptyTimes.Error())
	}

	for i, v := range values {
		if _, err := domain.ParseTimeOfDay(v); err != nil {
			return nil, NewValidationError(fmt.Sprintf("times[%d]", i), err.Error())
		}
	}

	times, err := domain.ParseTimesOfDay(values)
	if err != nil {
		return nil, NewValidationError("times", err.Error())
	}

	return times, nil
}

func parseRecurrence(input RecurrenceInput) (domain.Recurrence, error) {
	recurrence, err := domain.NewRecurrence(input.Type, input.Weekdays, input.IntervalHours, input.IntervalDays)
	if err != nil {
		return domain.Recurrence{}, NewValidationError("recurrence", err.Error())
	}

	return recurrence, nil
}

func toAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case IsValidationError(err), IsBackendSchedulingError(err):
		return err
	case errors.Is(err, ErrStorage), errors.Is(err, ErrNotFound), errors.Is(err, ErrInternalError):
		return err
	case errors.Is(err, domain.ErrReminderNotFound), errors.Is(err, domain.ErrLogEntryNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case domain.IsStorageError(err):
		return fmt.Errorf("%w: %v", ErrStorage, err)
	default:
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
}
