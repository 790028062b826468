package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-med-remind/internal/app"
	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/filestore"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/notify"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/pubsub"
)

var referenceInstant = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	dir       string
	clk       clock.FakeClock
	sc        app.SchedulerContext
	timer     *notify.TimerBackend
	scheduler *app.NotificationScheduler
	loop      *app.ReconciliationLoop
	useCase   app.ReminderUseCase
}

type fixtureOptions struct {
	dir       string
	horizon   time.Duration
	backend   domain.NotificationBackend
	publisher pubsub.Publisher
	clk       clock.FakeClock
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()

	clk := opts.clk
	if clk == nil {
		clk = clock.NewFake()
		clk.Set(referenceInstant)
	}

	dir := opts.dir
	if dir == "" {
		dir = t.TempDir()
	}

	reminders, err := filestore.OpenReminderStore(dir, clk)
	require.NoError(t, err)

	logs, err := filestore.OpenActionLog(dir)
	require.NoError(t, err)

	f := &fixture{dir: dir, clk: clk}

	backend := opts.backend
	if backend == nil {
		f.timer = notify.NewTimerBackend(clk, notify.TimerConfig{Horizon: opts.horizon})
		backend = f.timer
	}

	f.sc = app.SchedulerContext{
		Reminders: reminders,
		Logs:      logs,
		Backend:   backend,
		Clock:     clk,
		Location:  time.UTC,
	}

	f.scheduler = app.NewNotificationScheduler(f.sc, app.SchedulerConfig{
		SnoozeDuration: 10 * time.Minute,
		ActionTimeout:  time.Hour,
		RetryBudget:    2,
	}, opts.publisher, nil)
	f.loop = app.NewReconciliationLoop(f.sc, f.scheduler, app.ReconcileConfig{}, nil)
	f.useCase = app.NewReminderUseCase(f.sc, f.scheduler, f.loop, opts.publisher)

	return f
}

func (f *fixture) create(t *testing.T, name string, times []string, rec app.RecurrenceInput) app.ReminderOutput {
	t.Helper()

	result, err := f.useCase.CreateReminder(context.Background(), app.CreateReminderInput{
		MedicationName: name,
		Times:          times,
		Recurrence:     rec,
	})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	return result.Reminder
}

func (f *fixture) live(t *testing.T) map[string]time.Time {
	t.Helper()

	triggers, err := f.sc.Backend.ListScheduled(context.Background())
	require.NoError(t, err)

	out := make(map[string]time.Time, len(triggers))
	for _, tr := range triggers {
		out[tr.ID] = tr.FiresAt
	}

	return out
}

// fire advances the clock to at, polls the timer backend and hands every
// fired event to the scheduler.
func (f *fixture) fire(t *testing.T, at time.Time) int {
	t.Helper()

	f.clk.Set(at)
	n := f.timer.Poll()

	for i := 0; i < n; i++ {
		ev := <-f.timer.Events()
		require.NoError(t, f.scheduler.HandleEvent(context.Background(), ev))
	}

	return n
}

func slotID(t *testing.T, reminderID string, index int) string {
	t.Helper()

	id, err := domain.ReminderIDFromString(reminderID)
	require.NoError(t, err)

	return domain.NewSlotID(id, index).String()
}

func daily() app.RecurrenceInput {
	return app.RecurrenceInput{Type: "daily"}
}
