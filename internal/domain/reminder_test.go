package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

func createValidName(t *testing.T, s string) domain.MedicationName {
	t.Helper()

	name, err := domain.NewMedicationName(s)
	require.NoError(t, err)

	return name
}

func createValidTimes(t *testing.T, values ...string) domain.TimesOfDay {
	t.Helper()

	times, err := domain.ParseTimesOfDay(values)
	require.NoError(t, err)

	return times
}

func TestNewReminderSuccess(t *testing.T) {
	name := createValidName(t, "Aspirin")
	times := createValidTimes(t, "08:00", "20:00")

	r, err := domain.NewReminder(name, times, domain.Daily(), true)

	require.NoError(t, err)
	assert.False(t, r.ID().IsZero())
	assert.Equal(t, "Aspirin", r.MedicationName().String())
	assert.Equal(t, []string{"08:00", "20:00"}, r.Times().Strings())
	assert.Equal(t, domain.RecurrenceDaily, r.Recurrence().Kind())
	assert.True(t, r.IsEnabled())
	assert.True(t, r.CreatedAt().IsZero())
	assert.True(t, r.UpdatedAt().IsZero())
}

func TestNewReminderError(t *testing.T) {
	tests := []struct {
		name       string
		medication domain.MedicationName
		times      domain.TimesOfDay
		recurrence domain.Recurrence
		expected   error
	}{
		{
			name:       "zero medication name",
			medication: domain.MedicationName{},
			times:      createValidTimes(t, "08:00"),
			recurrence: domain.Daily(),
			expected:   domain.ErrEmptyMedicationName,
		},
		{
			name:       "no times",
			medication: createValidName(t, "Aspirin"),
			times:      nil,
			recurrence: domain.Daily(),
			expected:   domain.ErrEmptyTimes,
		},
		{
			name:       "zero recurrence",
			medication: createValidName(t, "Aspirin"),
			times:      createValidTimes(t, "08:00"),
			recurrence: domain.Recurrence{},
			expected:   domain.ErrInvalidRecurrence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewReminder(tt.medication, tt.times, tt.recurrence, true)

			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestNewReminderGeneratesUniqueIDsSuccess(t *testing.T) {
	seen := make(map[string]struct{})

	for range 50 {
		r, err := domain.NewReminder(createValidName(t, "Aspirin"), createValidTimes(t, "08:00"), domain.Daily(), true)
		require.NoError(t, err)

		_, dup := seen[r.ID().String()]
		assert.False(t, dup)

		seen[r.ID().String()] = struct{}{}
	}
}

func TestMedicationNameNormalization(t *testing.T) {
	composed, err := domain.NewMedicationName("  Caf\u00e9ine ")
	require.NoError(t, err)

	decomposed, err := domain.NewMedicationName("Cafe\u0301ine")
	require.NoError(t, err)

	assert.Equal(t, composed, decomposed)

	_, err = domain.NewMedicationName("   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMedicationName)
}

func TestReminderMutators(t *testing.T) {
	r, err := domain.NewReminder(createValidName(t, "Aspirin"), createValidTimes(t, "08:00"), domain.Daily(), true)
	require.NoError(t, err)

	require.NoError(t, r.Rename(createValidName(t, "Ibuprofen")))
	require.NoError(t, r.ChangeTimes(createValidTimes(t, "09:00", "21:00")))
	require.NoError(t, r.ChangeRecurrence(mustCustomDays(t, 2)))
	r.SetEnabled(false)

	assert.Equal(t, "Ibuprofen", r.MedicationName().String())
	assert.Equal(t, 2, r.Times().Count())
	assert.Equal(t, 2, r.Recurrence().IntervalDays())
	assert.False(t, r.IsEnabled())

	assert.ErrorIs(t, r.Rename(domain.MedicationName{}), domain.ErrEmptyMedicationName)
	assert.ErrorIs(t, r.ChangeTimes(nil), domain.ErrEmptyTimes)
	assert.ErrorIs(t, r.ChangeRecurrence(domain.Recurrence{}), domain.ErrInvalidRecurrence)
	assert.Equal(t, "Ibuprofen", r.MedicationName().String())
}

func TestReminderStampedCopies(t *testing.T) {
	r, err := domain.NewReminder(createValidName(t, "Aspirin"), createValidTimes(t, "08:00"), domain.Daily(), true)
	require.NoError(t, err)

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	stamped := r.Stamped(created, created)

	assert.Equal(t, created, stamped.CreatedAt())
	assert.True(t, r.CreatedAt().IsZero())
	assert.True(t, stamped.ID().Equals(r.ID()))
}

func TestReminderSnapshotIsDetached(t *testing.T) {
	r, err := domain.NewReminder(createValidName(t, "Aspirin"), createValidTimes(t, "08:00"), domain.Daily(), true)
	require.NoError(t, err)

	snap := r.Snapshot()
	require.NoError(t, r.Rename(createValidName(t, "Paracetamol")))
	require.NoError(t, r.ChangeTimes(createValidTimes(t, "10:00")))

	assert.Equal(t, "Aspirin", snap.MedicationName.String())
	assert.Equal(t, []string{"08:00"}, snap.Times.Strings())
}
