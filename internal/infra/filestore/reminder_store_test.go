package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/filestore"
)

var baseTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newFakeClock() clock.FakeClock {
	clk := clock.NewFake()
	clk.Set(baseTime)

	return clk
}

func newReminder(t *testing.T, name string, times []string, rec domain.Recurrence) *domain.Reminder {
	t.Helper()

	medication, err := domain.NewMedicationName(name)
	require.NoError(t, err)

	tod, err := domain.ParseTimesOfDay(times)
	require.NoError(t, err)

	r, err := domain.NewReminder(medication, tod, rec, true)
	require.NoError(t, err)

	return r
}

func TestReminderStoreUpsertStampsTimes(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()

	store, err := filestore.OpenReminderStore(t.TempDir(), clk)
	require.NoError(t, err)

	r := newReminder(t, "Aspirin", []string{"08:00"}, domain.Daily())

	created, err := store.Upsert(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, baseTime, created.CreatedAt())
	assert.Equal(t, baseTime, created.UpdatedAt())

	clk.Add(time.Minute)
	require.NoError(t, created.Rename(mustName(t, "Ibuprofen")))

	updated, err := store.Upsert(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, baseTime, updated.CreatedAt())
	assert.Equal(t, baseTime.Add(time.Minute), updated.UpdatedAt())

	got, err := store.Get(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofen", got.MedicationName().String())
}

func TestReminderStoreUpdatedAtIsMonotonic(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()

	store, err := filestore.OpenReminderStore(t.TempDir(), clk)
	require.NoError(t, err)

	r, err := store.Upsert(ctx, newReminder(t, "Aspirin", []string{"08:00"}, domain.Daily()))
	require.NoError(t, err)

	previous := r.UpdatedAt()

	for range 3 {
		r, err = store.Upsert(ctx, r)
		require.NoError(t, err)
		assert.True(t, r.UpdatedAt().After(previous))

		previous = r.UpdatedAt()
	}

	disabled, err := store.SetEnabled(ctx, r.ID(), false)
	require.NoError(t, err)
	assert.False(t, disabled.IsEnabled())
	assert.True(t, disabled.UpdatedAt().After(previous))
}

func TestReminderStoreNotFound(t *testing.T) {
	ctx := context.Background()

	store, err := filestore.OpenReminderStore(t.TempDir(), newFakeClock())
	require.NoError(t, err)

	id := domain.NewReminderID()

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrReminderNotFound)

	err = store.Delete(ctx, id)
	assert.ErrorIs(t, err, domain.ErrReminderNotFound)

	_, err = store.SetEnabled(ctx, id, true)
	assert.ErrorIs(t, err, domain.ErrReminderNotFound)
}

func TestReminderStoreDelete(t *testing.T) {
	ctx := context.Background()

	store, err := filestore.OpenReminderStore(t.TempDir(), newFakeClock())
	require.NoError(t, err)

	a, err := store.Upsert(ctx, newReminder(t, "Aspirin", []string{"08:00"}, domain.Daily()))
	require.NoError(t, err)
	b, err := store.Upsert(ctx, newReminder(t, "Vitamin D", []string{"12:00"}, domain.Daily()))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, a.ID()))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].ID().Equals(b.ID()))
}

func TestReminderStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clk := newFakeClock()

	store, err := filestore.OpenReminderStore(dir, clk)
	require.NoError(t, err)

	rec, err := domain.IntervalHours(3)
	require.NoError(t, err)

	r, err := store.Upsert(ctx, newReminder(t, "Amoxicillin", []string{"10:00"}, rec))
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	before, err := domain.NextOccurrence(r.Times()[0], r.Recurrence(), now)
	require.NoError(t, err)

	reopened, err := filestore.OpenReminderStore(dir, clk)
	require.NoError(t, err)

	loaded, err := reopened.Get(ctx, r.ID())
	require.NoError(t, err)

	after, err := domain.NextOccurrence(loaded.Times()[0], loaded.Recurrence(), now)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC), after)
	assert.Equal(t, r.CreatedAt(), loaded.CreatedAt())
}

func TestReminderStoreConcurrentUpsertsAreNotLost(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := filestore.OpenReminderStore(dir, clock.New())
	require.NoError(t, err)

	const writers = 20

	var wg sync.WaitGroup

	for i := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := store.Upsert(ctx, newReminder(t, "Med", []string{"08:00"}, domain.Daily()))
			assert.NoError(t, err, "writer %d", i)
		}()
	}

	wg.Wait()

	reopened, err := filestore.OpenReminderStore(dir, clock.New())
	require.NoError(t, err)

	list, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, writers)
}

func TestReminderStoreSkipsUndecodableRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	content := `[
  {"id": "not-a-uuid", "medicationName": "X", "times": ["08:00"], "recurrence": {"type": "daily"}, "enabled": true},
  {"id": "3f2504e0-4f89-41d3-9a0c-0305e82c3301", "medicationName": "Aspirin", "times": ["08:00"], "recurrence": {"type": "daily"}, "enabled": true}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.RemindersFile), []byte(content), 0o600))

	store, err := filestore.OpenReminderStore(dir, newFakeClock())
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Aspirin", list[0].MedicationName().String())
}

func TestReminderStorePersistedFormat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := filestore.OpenReminderStore(dir, newFakeClock())
	require.NoError(t, err)

	weekdays, err := domain.Weekdays(time.Friday, time.Monday, time.Wednesday)
	require.NoError(t, err)

	everyOtherDay, err := domain.CustomDays(2)
	require.NoError(t, err)

	fixtures := []*domain.Reminder{
		domain.ReconstituteReminder(
			domain.ReminderIDFromUUID(uuid.MustParse("3f2504e0-4f89-41d3-9a0c-0305e82c3301")),
			mustName(t, "Aspirin"),
			mustTimes(t, "08:00", "20:00"),
			weekdays,
			true,
			time.Time{},
			time.Time{},
		),
		domain.ReconstituteReminder(
			domain.ReminderIDFromUUID(uuid.MustParse("9b2f7c1e-6a43-4d8e-8f2a-1c5d3e7b9a01")),
			mustName(t, "Vitamin D"),
			mustTimes(t, "12:30"),
			everyOtherDay,
			false,
			time.Time{},
			time.Time{},
		),
	}

	for _, r := range fixtures {
		_, err := store.Upsert(ctx, r)
		require.NoError(t, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, filestore.RemindersFile))
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "reminders", data)
}

func mustName(t *testing.T, s string) domain.MedicationName {
	t.Helper()

	name, err := domain.NewMedicationName(s)
	require.NoError(t, err)

	return name
}

func mustTimes(t *testing.T, values ...string) domain.TimesOfDay {
	t.Helper()

	times, err := domain.ParseTimesOfDay(values)
	require.NoError(t, err)

	return times
}
