package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/metrics"
)

const (
	defaultReconcileSchedule = "@every 15m"

	ReasonStartup    = "startup"
	ReasonSchedule   = "schedule"
	ReasonForeground = "foreground"
	ReasonManual     = "manual"
)

type ReconcileConfig struct {
	// Schedule is a robfig/cron spec, e.g. "@every 15m" or "*/10 * * * *".
	Schedule string
}

type ReconcileReport struct {
	Reason    string
	StartedAt time.Time
	Duration  time.Duration
	Reminders int
	Armed     int
	Kept      int
	Cancelled int
	Deferred  int
	Failed    int
	Warnings  []string
}

// ReconciliationLoop re-derives the desired trigger set from the reminder
// store and corrects the backend towards it. It never consults what earlier
// schedule or cancel calls did.
type ReconciliationLoop struct {
	sc        SchedulerContext
	scheduler *NotificationScheduler
	cfg       ReconcileConfig
	metrics   *metrics.SchedulerMetrics

	passMu   sync.Mutex
	requests chan string
}

func NewReconciliationLoop(
	sc SchedulerContext,
	scheduler *NotificationScheduler,
	cfg ReconcileConfig,
	m *metrics.SchedulerMetrics,
) *ReconciliationLoop {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultReconcileSchedule
	}

	return &ReconciliationLoop{
		sc:        sc,
		scheduler: scheduler,
		cfg:       cfg,
		metrics:   m,
		requests:  make(chan string, 1),
	}
}

// Trigger requests a pass without waiting for it. Requests made while one is
// already queued collapse into it.
func (l *ReconciliationLoop) Trigger(reason string) {
	select {
	case l.requests <- reason:
	default:
	}
}

// Run performs a startup pass, then serves cron ticks and Trigger requests
// until ctx is done.
func (l *ReconciliationLoop) Run(ctx context.Context) error {
	loc := l.sc.Location
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(l.cfg.Schedule, func() { l.Trigger(ReasonSchedule) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", l.cfg.Schedule, err)
	}

	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	slog.InfoContext(ctx, "reconciliation loop started",
		slog.String("schedule", l.cfg.Schedule),
	)

	l.runPass(ctx, ReasonStartup)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "reconciliation loop stopped")

			return nil
		case reason := <-l.requests:
			l.runPass(ctx, reason)
		}
	}
}

func (l *ReconciliationLoop) runPass(ctx context.Context, reason string) {
	report, err := l.Reconcile(ctx, reason)
	if err != nil {
		slog.ErrorContext(ctx, "reconciliation failed",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)

		return
	}

	if report.Failed > 0 {
		slog.WarnContext(ctx, "reconciliation left slots unscheduled",
			slog.String("reason", reason),
			slog.Int("failed", report.Failed),
		)
	}
}

// Reconcile runs one pass. Only failures to read the store or the backend
// abort it; per-slot backend failures are counted in the report and left
// for the next pass.
func (l *ReconciliationLoop) Reconcile(ctx context.Context, reason string) (ReconcileReport, error) {
	l.passMu.Lock()
	defer l.passMu.Unlock()

	start := l.sc.Clock.Now()
	report := ReconcileReport{Reason: reason, StartedAt: start}

	err := l.reconcile(ctx, &report)

	report.Duration = l.sc.Clock.Now().Sub(start)
	l.metrics.ReconcileRun(ctx, reason, report.Duration, err != nil)

	if err != nil {
		return report, err
	}

	slog.InfoContext(ctx, "reconciliation pass completed",
		slog.String("reason", reason),
		slog.Int("reminders", report.Reminders),
		slog.Int("armed", report.Armed),
		slog.Int("kept", report.Kept),
		slog.Int("cancelled", report.Cancelled),
		slog.Int("deferred", report.Deferred),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration),
	)

	return report, nil
}

func (l *ReconciliationLoop) reconcile(ctx context.Context, report *ReconcileReport) error {
	reminders, err := l.sc.Reminders.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	live, err := l.sc.Backend.ListScheduled(ctx)
	if err != nil {
		l.metrics.BackendFailure(ctx, "list")

		return fmt.Errorf("%w: list scheduled triggers: %v", ErrInternalError, err)
	}

	byReminder := make(map[domain.ReminderID][]domain.Trigger)

	for _, t := range live {
		ref := domain.ParseTriggerID(t.ID)
		if ref.Kind == domain.TriggerUnknown {
			continue
		}

		byReminder[ref.ReminderID] = append(byReminder[ref.ReminderID], t)
	}

	enabled := make(map[domain.ReminderID]struct{})

	for _, r := range reminders {
		if !r.IsEnabled() {
			continue
		}

		enabled[r.ID()] = struct{}{}
		report.Reminders++

		l.reconcileReminder(ctx, r, byReminder[r.ID()], report)
	}

	for id, triggers := range byReminder {
		if _, ok := enabled[id]; ok {
			continue
		}

		l.cancelOrphans(ctx, id, triggers, report)
	}

	return nil
}

func (l *ReconciliationLoop) reconcileReminder(
	ctx context.Context,
	r *domain.Reminder,
	live []domain.Trigger,
	report *ReconcileReport,
) {
	unlock := l.scheduler.locks.lock(r.ID())
	defer unlock()

	// The listing may be older than an edit that landed since; arm from the
	// stored copy.
	current, err := l.sc.Reminders.Get(ctx, r.ID())

	switch {
	case errors.Is(err, domain.ErrReminderNotFound):
		l.cancelTriggers(ctx, r.ID(), live, report)

		return
	case err != nil:
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", r.ID().String(), err))

		return
	case !current.IsEnabled():
		l.cancelTriggers(ctx, r.ID(), live, report)

		return
	}

	r = current
	now := l.sc.now()

	occurrences, err := domain.Occurrences(r, now)
	if err != nil {
		report.Failed += r.Times().Count()
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", r.ID().String(), err))

		return
	}

	liveByID := make(map[string]domain.Trigger, len(live))
	for _, t := range live {
		liveByID[t.ID] = t
	}

	armed := make([]string, 0, len(occurrences))

	for _, occ := range occurrences {
		id := occ.Slot.String()
		trigger, isLive := liveByID[id]
		delete(liveByID, id)

		if isLive && l.correctlyArmed(trigger, r, occ, now) {
			report.Kept++
			l.scheduler.markScheduled(id, trigger.FiresAt)

			continue
		}

		if isLive && l.awaitingDelivery(trigger, r, occ, now) {
			// The backend has not delivered it yet; handling the fired
			// event arms the next occurrence.
			report.Kept++
			l.scheduler.markScheduled(id, trigger.FiresAt)

			slog.DebugContext(ctx, "due trigger awaiting delivery, kept",
				slog.String("slot_id", id),
				slog.Time("fires_at", trigger.FiresAt),
			)

			continue
		}

		if isLive {
			if err := l.scheduler.cancelTrigger(ctx, id); err != nil {
				l.scheduler.markFailed(ctx, id, err)
				report.Failed++
				report.Warnings = append(report.Warnings, NewBackendSchedulingError(id, err).Error())

				continue
			}

			report.Cancelled++
		}

		if !l.scheduler.withinHorizon(occ.ScheduledInstant) {
			l.scheduler.markDeferred(id, occ.ScheduledInstant)
			report.Deferred++

			continue
		}

		if err := l.scheduler.armSlot(ctx, r, occ); err != nil {
			report.Failed++
			report.Warnings = append(report.Warnings, err.Error())

			continue
		}

		report.Armed++
		armed = append(armed, id)
	}

	// Whatever is left belongs to slots the reminder no longer has. Snoozes
	// of an enabled reminder stay.
	for id := range liveByID {
		if domain.ParseTriggerID(id).Kind != domain.TriggerSlot {
			continue
		}

		if l.scheduler.cancelTrigger(ctx, id) == nil {
			report.Cancelled++
		}
	}

	l.scheduler.withdrawIfStale(ctx, r.ID(), armed)
}

// correctlyArmed reports whether a live trigger can stand for the slot: it
// is in the future, lands on an instant the recurrence allows, and is not
// later than the idealised next occurrence.
func (l *ReconciliationLoop) correctlyArmed(t domain.Trigger, r *domain.Reminder, occ domain.ScheduledOccurrence, now time.Time) bool {
	if !t.FiresAt.After(now) {
		return false
	}

	if t.FiresAt.After(occ.ScheduledInstant) {
		return false
	}

	return domain.IsOccurrenceOf(occ.TimeOfDay, r.Recurrence(), t.FiresAt.In(now.Location()))
}

// awaitingDelivery reports whether a live trigger is a due occurrence of the
// slot that the backend has yet to deliver. Past the action timeout the
// trigger is treated as lost.
func (l *ReconciliationLoop) awaitingDelivery(t domain.Trigger, r *domain.Reminder, occ domain.ScheduledOccurrence, now time.Time) bool {
	if t.FiresAt.After(now) || now.Sub(t.FiresAt) > l.scheduler.cfg.ActionTimeout {
		return false
	}

	return domain.IsOccurrenceOf(occ.TimeOfDay, r.Recurrence(), t.FiresAt.In(now.Location()))
}

func (l *ReconciliationLoop) cancelOrphans(
	ctx context.Context,
	id domain.ReminderID,
	triggers []domain.Trigger,
	report *ReconcileReport,
) {
	unlock := l.scheduler.locks.lock(id)
	defer unlock()

	// The reminder may have been created or re-enabled since the listing.
	if r, err := l.sc.Reminders.Get(ctx, id); err == nil && r.IsEnabled() {
		return
	} else if err != nil && !errors.Is(err, domain.ErrReminderNotFound) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", id.String(), err))

		return
	}

	l.cancelTriggers(ctx, id, triggers, report)
}

// cancelTriggers cancels every listed trigger of a reminder that is gone or
// disabled. The caller holds the reminder's lock.
func (l *ReconciliationLoop) cancelTriggers(
	ctx context.Context,
	id domain.ReminderID,
	triggers []domain.Trigger,
	report *ReconcileReport,
) {
	for _, t := range triggers {
		if err := l.scheduler.cancelTrigger(ctx, t.ID); err != nil {
			report.Failed++
			report.Warnings = append(report.Warnings, NewBackendSchedulingError(t.ID, err).Error())

			continue
		}

		report.Cancelled++
	}

	l.scheduler.forgetSlots(id)

	slog.DebugContext(ctx, "orphan triggers cancelled",
		slog.String("reminder_id", id.String()),
		slog.Int("count", len(triggers)),
	)
}
