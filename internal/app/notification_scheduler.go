package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/pubsub"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/metrics"
)

const (
	defaultSnoozeDuration = 10 * time.Minute
	defaultActionTimeout  = time.Hour
	defaultRetryBudget    = 3
)

type SlotState string

const (
	SlotUnscheduled SlotState = "unscheduled"
	SlotScheduled   SlotState = "scheduled"
)

type OccurrenceState string

const (
	OccurrenceAwaitingAction OccurrenceState = "awaiting_action"
	OccurrenceLoggedTaken    OccurrenceState = "logged_taken"
	OccurrenceLoggedSkipped  OccurrenceState = "logged_skipped"
	OccurrenceExpired        OccurrenceState = "expired"
)

type SchedulerConfig struct {
	SnoozeDuration time.Duration
	// ActionTimeout is how long a fired occurrence awaits an action before
	// it expires.
	ActionTimeout time.Duration
	// RetryBudget is the number of consecutive backend failures tolerated
	// on a slot before it is reported as escalated.
	RetryBudget int
}

// SlotStatus is the scheduler's view of one slot's backend trigger.
type SlotStatus struct {
	SlotID    string
	State     SlotState
	FiresAt   time.Time
	Deferred  bool
	Failures  int
	LastError string
	Escalated bool
}

// PendingOccurrence is a fired occurrence that has not been acted on yet.
type PendingOccurrence struct {
	TriggerID      string
	ReminderID     string
	MedicationName string
	ScheduledTime  time.Time
	FiredAt        time.Time
	Snoozed        bool
	State          OccurrenceState
}

type SchedulerStatus struct {
	Live      []domain.Trigger
	Slots     []SlotStatus
	Pending   []PendingOccurrence
	Escalated []SlotStatus
}

// NotificationScheduler keeps the backend's trigger set in step with the
// reminders. Each enabled reminder has at most one live trigger per slot.
type NotificationScheduler struct {
	sc        SchedulerContext
	cfg       SchedulerConfig
	publisher pubsub.Publisher
	metrics   *metrics.SchedulerMetrics
	locks     *reminderLocks

	mu      sync.Mutex
	slots   map[string]*SlotStatus
	pending map[string]*PendingOccurrence
}

func NewNotificationScheduler(
	sc SchedulerContext,
	cfg SchedulerConfig,
	publisher pubsub.Publisher,
	m *metrics.SchedulerMetrics,
) *NotificationScheduler {
	if cfg.SnoozeDuration <= 0 {
		cfg.SnoozeDuration = defaultSnoozeDuration
	}

	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}

	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = defaultRetryBudget
	}

	return &NotificationScheduler{
		sc:        sc,
		cfg:       cfg,
		publisher: publisher,
		metrics:   m,
		locks:     newReminderLocks(),
		slots:     make(map[string]*SlotStatus),
		pending:   make(map[string]*PendingOccurrence),
	}
}

// Rearm cancels every trigger of r and, when r is enabled, arms the next
// occurrence of each of its slots. The stored reminder is armed, not r
// itself, so a caller holding an outdated copy cannot resurrect old times;
// a reminder that no longer exists is disarmed. Slots whose occurrence lies
// beyond the backend horizon stay unscheduled until reconciliation reaches
// them. Backend failures are returned joined as *BackendSchedulingError
// values; the remaining slots are still armed.
func (s *NotificationScheduler) Rearm(ctx context.Context, r *domain.Reminder) error {
	unlock := s.locks.lock(r.ID())
	defer unlock()

	current, err := s.sc.Reminders.Get(ctx, r.ID())
	if err != nil {
		if !errors.Is(err, domain.ErrReminderNotFound) {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}

		slog.DebugContext(ctx, "reminder gone before rearm, disarming",
			slog.String("reminder_id", r.ID().String()),
		)

		slotCount := max(r.Times().Count(), s.knownSlotCount(r.ID()))
		_, errs := s.cancelReminderTriggers(ctx, r.ID(), s.listLive(ctx), slotCount, true)
		s.forgetSlots(r.ID())

		return errors.Join(errs...)
	}

	// Slots dropped by an edit since r was read still need cancelling.
	slotCount := max(current.Times().Count(), r.Times().Count())
	r = current

	slog.DebugContext(ctx, "rearming reminder",
		slog.String("reminder_id", r.ID().String()),
		slog.Bool("enabled", r.IsEnabled()),
		slog.Int("slots", r.Times().Count()),
	)

	live := s.listLive(ctx)

	blocked, errs := s.cancelReminderTriggers(ctx, r.ID(), live, slotCount, !r.IsEnabled())

	if !r.IsEnabled() {
		s.forgetSlots(r.ID())

		return errors.Join(errs...)
	}

	occurrences, err := domain.Occurrences(r, s.sc.now())
	if err != nil {
		slog.WarnContext(ctx, "failed to compute occurrences",
			slog.String("reminder_id", r.ID().String()),
			slog.String("error", err.Error()),
		)

		return errors.Join(append(errs, err)...)
	}

	armed := make([]string, 0, len(occurrences))

	for _, occ := range occurrences {
		id := occ.Slot.String()
		if _, ok := blocked[id]; ok {
			continue
		}

		if !s.withinHorizon(occ.ScheduledInstant) {
			s.markDeferred(id, occ.ScheduledInstant)

			continue
		}

		if err := s.armSlot(ctx, r, occ); err != nil {
			errs = append(errs, err)

			continue
		}

		armed = append(armed, id)
	}

	s.withdrawIfStale(ctx, r.ID(), armed)

	return errors.Join(errs...)
}

// Disarm cancels every trigger belonging to the reminder, snoozes included.
func (s *NotificationScheduler) Disarm(ctx context.Context, id domain.ReminderID) error {
	unlock := s.locks.lock(id)
	defer unlock()

	_, errs := s.cancelReminderTriggers(ctx, id, s.listLive(ctx), s.knownSlotCount(id), true)
	s.forgetSlots(id)

	slog.DebugContext(ctx, "reminder disarmed",
		slog.String("reminder_id", id.String()),
	)

	return errors.Join(errs...)
}

// DisarmAll cancels every trigger this scheduler minted, snoozes included,
// and drops all slot and pending state. Foreign triggers are left alone. It
// returns how many triggers were cancelled.
func (s *NotificationScheduler) DisarmAll(ctx context.Context) (int, error) {
	live, err := s.sc.Backend.ListScheduled(ctx)
	if err != nil {
		s.metrics.BackendFailure(ctx, "list")

		return 0, fmt.Errorf("%w: list scheduled triggers: %v", ErrInternalError, err)
	}

	byReminder := make(map[domain.ReminderID][]string)

	for _, t := range live {
		ref := domain.ParseTriggerID(t.ID)
		if ref.Kind == domain.TriggerUnknown {
			continue
		}

		byReminder[ref.ReminderID] = append(byReminder[ref.ReminderID], t.ID)
	}

	var (
		cancelled int
		errs      []error
	)

	for id, triggerIDs := range byReminder {
		unlock := s.locks.lock(id)

		for _, triggerID := range triggerIDs {
			if err := s.cancelTrigger(ctx, triggerID); err != nil {
				errs = append(errs, NewBackendSchedulingError(triggerID, err))

				continue
			}

			cancelled++
		}

		s.forgetSlots(id)
		unlock()
	}

	s.mu.Lock()
	s.slots = make(map[string]*SlotStatus)
	s.pending = make(map[string]*PendingOccurrence)
	s.mu.Unlock()

	slog.InfoContext(ctx, "all triggers cancelled",
		slog.Int("count", cancelled),
		slog.Int("failed", len(errs)),
	)

	return cancelled, errors.Join(errs...)
}

// HandleEvent applies one backend event. Duplicate deliveries are harmless:
// re-arming a slot overwrites its trigger and pending occurrences are keyed
// by reminder and scheduled time.
func (s *NotificationScheduler) HandleEvent(ctx context.Context, ev domain.NotificationEvent) error {
	ref, ok := reminderIDOf(ev)
	if !ok {
		slog.DebugContext(ctx, "ignoring event for foreign trigger",
			slog.String("trigger_id", ev.TriggerID),
			slog.String("event_type", string(ev.Type)),
		)

		return nil
	}

	switch ev.Type {
	case domain.EventFired:
		return s.handleFired(ctx, ev, ref)

	case domain.EventPressed:
		slog.InfoContext(ctx, "notification pressed",
			slog.String("reminder_id", ref.ReminderID.String()),
			slog.String("trigger_id", ev.TriggerID),
		)

		return nil

	case domain.EventActionInvoked:
		scheduledTime := scheduledTimeOf(ev)

		switch ev.Action {
		case domain.ActionTaken:
			_, err := s.RecordOutcome(ctx, ref.ReminderID, scheduledTime, domain.LogStatusTaken)

			return err
		case domain.ActionSkip:
			_, err := s.RecordOutcome(ctx, ref.ReminderID, scheduledTime, domain.LogStatusSkipped)

			return err
		case domain.ActionSnooze:
			_, err := s.Snooze(ctx, ref.ReminderID, scheduledTime)

			return err
		default:
			return NewValidationError("action", fmt.Sprintf("unknown action %q", ev.Action))
		}

	default:
		return NewValidationError("type", fmt.Sprintf("unknown event type %q", ev.Type))
	}
}

func (s *NotificationScheduler) handleFired(ctx context.Context, ev domain.NotificationEvent, ref domain.TriggerRef) error {
	unlock := s.locks.lock(ref.ReminderID)
	defer unlock()

	r, err := s.sc.Reminders.Get(ctx, ref.ReminderID)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			_ = s.cancelTrigger(ctx, ev.TriggerID)

			return nil
		}

		return err
	}

	if !r.IsEnabled() {
		_ = s.cancelTrigger(ctx, ev.TriggerID)

		return nil
	}

	firedAt := ev.At
	if firedAt.IsZero() {
		firedAt = s.sc.now()
	}

	s.addPending(PendingOccurrence{
		TriggerID:      ev.TriggerID,
		ReminderID:     r.ID().String(),
		MedicationName: r.MedicationName().String(),
		ScheduledTime:  scheduledTimeOf(ev),
		FiredAt:        firedAt,
		Snoozed:        ref.Kind == domain.TriggerSnooze,
		State:          OccurrenceAwaitingAction,
	})

	slog.InfoContext(ctx, "occurrence fired",
		slog.String("reminder_id", r.ID().String()),
		slog.String("trigger_id", ev.TriggerID),
		slog.Time("scheduled_time", scheduledTimeOf(ev)),
	)

	if ref.Kind != domain.TriggerSlot {
		return nil
	}

	index := ref.Slot.Index()
	if index >= r.Times().Count() {
		_ = s.cancelTrigger(ctx, ev.TriggerID)

		return nil
	}

	// A fired trigger is gone from the backend; arm the slot's next
	// occurrence strictly after the one that just fired.
	reference := s.sc.now()
	if ev.FiresAt.After(reference) {
		reference = ev.FiresAt
	}

	at := r.Times()[index]

	next, err := domain.NextSlotOccurrence(at, r.Recurrence(), reference)
	if err != nil {
		return err
	}

	occ := domain.ScheduledOccurrence{
		Slot:             ref.Slot,
		TimeOfDay:        at,
		ScheduledInstant: next,
	}

	if !s.withinHorizon(next) {
		s.markDeferred(ref.Slot.String(), next)

		return nil
	}

	if err := s.armSlot(ctx, r, occ); err != nil {
		return err
	}

	s.withdrawIfStale(ctx, r.ID(), []string{ref.Slot.String()})

	return nil
}

// RecordOutcome appends a taken or skipped entry for one occurrence. It does
// not touch scheduling.
func (s *NotificationScheduler) RecordOutcome(
	ctx context.Context,
	reminderID domain.ReminderID,
	scheduledTime time.Time,
	status domain.LogStatus,
) (*domain.LogEntry, error) {
	r, err := s.sc.Reminders.Get(ctx, reminderID)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			s.resolvePending(reminderID, scheduledTime)
		}

		return nil, err
	}

	entry, err := domain.NewLogEntry(r, scheduledTime, status, s.sc.now())
	if err != nil {
		return nil, err
	}

	saved, err := s.sc.Logs.Append(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.resolvePending(reminderID, scheduledTime)

	slog.InfoContext(ctx, "occurrence logged",
		slog.String("reminder_id", reminderID.String()),
		slog.String("log_id", saved.ID().String()),
		slog.String("status", string(status)),
		slog.Time("scheduled_time", scheduledTime),
	)

	if s.publisher != nil {
		if pubErr := s.publisher.PublishOccurrenceLogged(ctx, pubsub.OccurrenceLoggedEvent{
			LogID:          saved.ID().String(),
			ReminderID:     reminderID.String(),
			MedicationName: saved.Snapshot().MedicationName.String(),
			Status:         string(saved.Status()),
			ScheduledTime:  saved.ScheduledTime(),
			ActionTime:     saved.ActionTime(),
		}); pubErr != nil {
			slog.ErrorContext(ctx, "failed to publish occurrence logged event",
				slog.String("reminder_id", reminderID.String()),
				slog.String("error", pubErr.Error()),
			)
		}
	}

	return saved, nil
}

// Snooze arms a one-shot trigger for the occurrence at now plus the snooze
// duration. Slot triggers are left alone.
func (s *NotificationScheduler) Snooze(
	ctx context.Context,
	reminderID domain.ReminderID,
	scheduledTime time.Time,
) (domain.Trigger, error) {
	unlock := s.locks.lock(reminderID)
	defer unlock()

	r, err := s.sc.Reminders.Get(ctx, reminderID)
	if err != nil {
		return domain.Trigger{}, err
	}

	if !r.IsEnabled() {
		return domain.Trigger{}, NewValidationError("reminder_id", "reminder is disabled")
	}

	firesAt := s.sc.now().Add(s.cfg.SnoozeDuration)
	trigger := domain.Trigger{
		ID:      domain.SnoozeTriggerID(reminderID, firesAt),
		FiresAt: firesAt,
		Payload: snoozePayload(r, scheduledTime),
	}

	if err := s.sc.Backend.Schedule(ctx, trigger); err != nil {
		s.metrics.BackendFailure(ctx, "schedule")

		slog.WarnContext(ctx, "failed to arm snooze trigger",
			slog.String("reminder_id", reminderID.String()),
			slog.String("trigger_id", trigger.ID),
			slog.String("error", err.Error()),
		)

		return domain.Trigger{}, NewBackendSchedulingError(trigger.ID, err)
	}

	s.metrics.Armed(ctx, "snooze")
	s.resolvePending(reminderID, scheduledTime)

	slog.InfoContext(ctx, "occurrence snoozed",
		slog.String("reminder_id", reminderID.String()),
		slog.String("trigger_id", trigger.ID),
		slog.Time("fires_at", firesAt),
	)

	s.withdrawIfStale(ctx, reminderID, []string{trigger.ID})

	return trigger, nil
}

// Run drains the backend's event channel until ctx is done.
func (s *NotificationScheduler) Run(ctx context.Context) {
	events := s.sc.Backend.Events()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			if err := s.HandleEvent(ctx, ev); err != nil {
				slog.WarnContext(ctx, "failed to handle notification event",
					slog.String("trigger_id", ev.TriggerID),
					slog.String("event_type", string(ev.Type)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Pending lists occurrences awaiting an action, dropping those that have
// expired.
func (s *NotificationScheduler) Pending() []PendingOccurrence {
	now := s.sc.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingOccurrence, 0, len(s.pending))

	for key, p := range s.pending {
		if now.Sub(p.FiredAt) > s.cfg.ActionTimeout {
			p.State = OccurrenceExpired

			slog.Debug("occurrence expired",
				slog.String("reminder_id", p.ReminderID),
				slog.Time("scheduled_time", p.ScheduledTime),
			)

			delete(s.pending, key)

			continue
		}

		out = append(out, *p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})

	return out
}

func (s *NotificationScheduler) Status(ctx context.Context) (SchedulerStatus, error) {
	live, err := s.sc.Backend.ListScheduled(ctx)
	if err != nil {
		return SchedulerStatus{}, err
	}

	pending := s.Pending()

	s.mu.Lock()

	slots := make([]SlotStatus, 0, len(s.slots))
	for _, st := range s.slots {
		slots = append(slots, *st)
	}

	s.mu.Unlock()

	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotID < slots[j].SlotID })

	escalated := make([]SlotStatus, 0)

	for _, st := range slots {
		if st.Escalated {
			escalated = append(escalated, st)
		}
	}

	return SchedulerStatus{
		Live:      live,
		Slots:     slots,
		Pending:   pending,
		Escalated: escalated,
	}, nil
}

func (s *NotificationScheduler) withinHorizon(instant time.Time) bool {
	horizon := s.sc.Backend.Horizon()
	if horizon <= 0 {
		return true
	}

	return !instant.After(s.sc.now().Add(horizon))
}

func (s *NotificationScheduler) listLive(ctx context.Context) []domain.Trigger {
	live, err := s.sc.Backend.ListScheduled(ctx)
	if err != nil {
		s.metrics.BackendFailure(ctx, "list")

		slog.WarnContext(ctx, "failed to list scheduled triggers",
			slog.String("error", err.Error()),
		)

		return nil
	}

	return live
}

// armSlot hands one occurrence to the backend. On failure the slot is left
// unscheduled.
func (s *NotificationScheduler) armSlot(ctx context.Context, r *domain.Reminder, occ domain.ScheduledOccurrence) error {
	id := occ.Slot.String()

	trigger := domain.Trigger{
		ID:      id,
		FiresAt: occ.ScheduledInstant,
		Payload: slotPayload(r, occ),
	}

	if err := s.sc.Backend.Schedule(ctx, trigger); err != nil {
		s.metrics.BackendFailure(ctx, "schedule")
		s.markFailed(ctx, id, err)

		return NewBackendSchedulingError(id, err)
	}

	s.metrics.Armed(ctx, "slot")
	s.markScheduled(id, occ.ScheduledInstant)

	slog.DebugContext(ctx, "slot armed",
		slog.String("reminder_id", r.ID().String()),
		slog.String("slot_id", id),
		slog.Time("fires_at", occ.ScheduledInstant),
	)

	return nil
}

func (s *NotificationScheduler) cancelTrigger(ctx context.Context, id string) error {
	if err := s.sc.Backend.Cancel(ctx, id); err != nil {
		s.metrics.BackendFailure(ctx, "cancel")

		slog.WarnContext(ctx, "failed to cancel trigger",
			slog.String("trigger_id", id),
			slog.String("error", err.Error()),
		)

		return err
	}

	s.metrics.Cancelled(ctx, 1)

	return nil
}

// cancelReminderTriggers cancels the reminder's slot triggers found in live
// and those of slots [0, slotCount). Snooze triggers are cancelled only when
// withSnoozes is set. Slots whose cancel failed are returned so they are not
// re-armed over a trigger that may still be live.
func (s *NotificationScheduler) cancelReminderTriggers(
	ctx context.Context,
	id domain.ReminderID,
	live []domain.Trigger,
	slotCount int,
	withSnoozes bool,
) (map[string]struct{}, []error) {
	ids := make(map[string]struct{})

	for i := 0; i < slotCount; i++ {
		ids[domain.NewSlotID(id, i).String()] = struct{}{}
	}

	for _, t := range live {
		ref := domain.ParseTriggerID(t.ID)
		if ref.Kind == domain.TriggerUnknown || !ref.ReminderID.Equals(id) {
			continue
		}

		if ref.Kind == domain.TriggerSnooze && !withSnoozes {
			continue
		}

		ids[t.ID] = struct{}{}
	}

	blocked := make(map[string]struct{})

	var errs []error

	for triggerID := range ids {
		if err := s.cancelTrigger(ctx, triggerID); err != nil {
			blocked[triggerID] = struct{}{}
			s.markFailed(ctx, triggerID, err)
			errs = append(errs, NewBackendSchedulingError(triggerID, err))

			continue
		}

		s.markUnscheduled(triggerID)
	}

	return blocked, errs
}

// withdrawIfStale cancels freshly armed triggers when the reminder was
// deleted or disabled while they were being armed.
func (s *NotificationScheduler) withdrawIfStale(ctx context.Context, id domain.ReminderID, armed []string) {
	if len(armed) == 0 {
		return
	}

	current, err := s.sc.Reminders.Get(ctx, id)

	switch {
	case err == nil && current.IsEnabled():
		return
	case err != nil && !errors.Is(err, domain.ErrReminderNotFound):
		slog.WarnContext(ctx, "could not confirm reminder after arming",
			slog.String("reminder_id", id.String()),
			slog.String("error", err.Error()),
		)

		return
	}

	slog.InfoContext(ctx, "reminder changed while arming, withdrawing triggers",
		slog.String("reminder_id", id.String()),
		slog.Int("count", len(armed)),
	)

	for _, triggerID := range armed {
		if s.cancelTrigger(ctx, triggerID) == nil {
			s.markUnscheduled(triggerID)
		}
	}

	s.forgetSlots(id)
}

func (s *NotificationScheduler) addPending(p PendingOccurrence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[pendingKey(p.ReminderID, p.ScheduledTime)] = &p
}

func (s *NotificationScheduler) resolvePending(id domain.ReminderID, scheduledTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, pendingKey(id.String(), scheduledTime))
}

func pendingKey(reminderID string, scheduledTime time.Time) string {
	return fmt.Sprintf("%s@%d", reminderID, scheduledTime.Unix())
}

func (s *NotificationScheduler) slot(id string) *SlotStatus {
	st, ok := s.slots[id]
	if !ok {
		st = &SlotStatus{SlotID: id, State: SlotUnscheduled}
		s.slots[id] = st
	}

	return st
}

func (s *NotificationScheduler) markScheduled(id string, firesAt time.Time) {
	if domain.ParseTriggerID(id).Kind != domain.TriggerSlot {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.slot(id)
	st.State = SlotScheduled
	st.FiresAt = firesAt
	st.Deferred = false
	st.Failures = 0
	st.LastError = ""
	st.Escalated = false
}

func (s *NotificationScheduler) markDeferred(id string, firesAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.slot(id)
	st.State = SlotUnscheduled
	st.FiresAt = firesAt
	st.Deferred = true
}

func (s *NotificationScheduler) markUnscheduled(id string) {
	if domain.ParseTriggerID(id).Kind != domain.TriggerSlot {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.slots[id]; ok {
		st.State = SlotUnscheduled
		st.FiresAt = time.Time{}
	}
}

func (s *NotificationScheduler) markFailed(ctx context.Context, id string, err error) {
	if domain.ParseTriggerID(id).Kind != domain.TriggerSlot {
		return
	}

	s.mu.Lock()

	st := s.slot(id)
	st.State = SlotUnscheduled
	st.FiresAt = time.Time{}
	st.Failures++
	st.LastError = err.Error()

	crossed := !st.Escalated && st.Failures > s.cfg.RetryBudget
	if crossed {
		st.Escalated = true
	}

	failures := st.Failures

	s.mu.Unlock()

	if crossed {
		slog.ErrorContext(ctx, "slot keeps failing to schedule",
			slog.String("slot_id", id),
			slog.Int("failures", failures),
			slog.String("error", err.Error()),
		)
	}
}

func (s *NotificationScheduler) forgetSlots(id domain.ReminderID) {
	prefix := id.String() + "_"

	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.slots {
		if strings.HasPrefix(key, prefix) {
			delete(s.slots, key)
		}
	}
}

func (s *NotificationScheduler) knownSlotCount(id domain.ReminderID) int {
	prefix := id.String() + "_"

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0

	for key := range s.slots {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		slot, err := domain.ParseSlotID(key)
		if err == nil && slot.Index()+1 > count {
			count = slot.Index() + 1
		}
	}

	return count
}
