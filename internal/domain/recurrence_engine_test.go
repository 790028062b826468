package domain_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func mustWeekdays(t *testing.T, days ...time.Weekday) domain.Recurrence {
	t.Helper()

	r, err := domain.Weekdays(days...)
	require.NoError(t, err)

	return r
}

func mustIntervalHours(t *testing.T, n int) domain.Recurrence {
	t.Helper()

	r, err := domain.IntervalHours(n)
	require.NoError(t, err)

	return r
}

func mustCustomDays(t *testing.T, n int) domain.Recurrence {
	t.Helper()

	r, err := domain.CustomDays(n)
	require.NoError(t, err)

	return r
}

func TestNextOccurrenceSuccess(t *testing.T) {
	// 2024-01-01 is a Monday.
	tests := []struct {
		name       string
		timeOfDay  domain.TimeOfDay
		recurrence domain.Recurrence
		ref        time.Time
		expected   time.Time
	}{
		{
			name:       "daily before time today",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: domain.Daily(),
			ref:        at(2024, 1, 1, 7, 59),
			expected:   at(2024, 1, 1, 8, 0),
		},
		{
			name:       "daily exactly at time advances a day",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: domain.Daily(),
			ref:        at(2024, 1, 1, 8, 0),
			expected:   at(2024, 1, 2, 8, 0),
		},
		{
			name:       "daily after time advances a day",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: domain.Daily(),
			ref:        at(2024, 1, 1, 9, 0),
			expected:   at(2024, 1, 2, 8, 0),
		},
		{
			name:       "daily across month end",
			timeOfDay:  domain.MustTimeOfDay(21, 30),
			recurrence: domain.Daily(),
			ref:        at(2024, 1, 31, 22, 0),
			expected:   at(2024, 2, 1, 21, 30),
		},
		{
			name:       "weekdays same day still ahead",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: mustWeekdays(t, time.Monday, time.Wednesday),
			ref:        at(2024, 1, 1, 7, 0),
			expected:   at(2024, 1, 1, 8, 0),
		},
		{
			name:       "weekdays same day passed moves to next listed day",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: mustWeekdays(t, time.Monday, time.Wednesday),
			ref:        at(2024, 1, 1, 9, 0),
			expected:   at(2024, 1, 3, 8, 0),
		},
		{
			name:       "weekdays only reference weekday and passed wraps a week",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: mustWeekdays(t, time.Monday),
			ref:        at(2024, 1, 1, 9, 0),
			expected:   at(2024, 1, 8, 8, 0),
		},
		{
			name:       "weekdays sunday from monday",
			timeOfDay:  domain.MustTimeOfDay(20, 15),
			recurrence: mustWeekdays(t, time.Sunday),
			ref:        at(2024, 1, 1, 9, 0),
			expected:   at(2024, 1, 7, 20, 15),
		},
		{
			name:       "interval hours before first time",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			ref:        at(2024, 1, 1, 9, 0),
			expected:   at(2024, 1, 1, 10, 0),
		},
		{
			name:       "interval hours adds one interval",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			ref:        at(2024, 1, 1, 11, 0),
			expected:   at(2024, 1, 1, 13, 0),
		},
		{
			name:       "interval hours does not catch up",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			ref:        at(2024, 1, 1, 14, 0),
			expected:   at(2024, 1, 1, 13, 0),
		},
		{
			name:       "custom days adds interval in days",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: mustCustomDays(t, 2),
			ref:        at(2024, 1, 1, 9, 0),
			expected:   at(2024, 1, 3, 8, 0),
		},
		{
			name:       "custom days before time today",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: mustCustomDays(t, 3),
			ref:        at(2024, 1, 1, 6, 0),
			expected:   at(2024, 1, 1, 8, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.NextOccurrence(tt.timeOfDay, tt.recurrence, tt.ref)

			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestNextOccurrenceError(t *testing.T) {
	tests := []struct {
		name       string
		recurrence domain.Recurrence
		expected   error
	}{
		{
			name:       "weekdays with empty day set",
			recurrence: domain.ReconstituteRecurrence(domain.RecurrenceWeekdays, nil, 0),
			expected:   domain.ErrEmptyWeekdays,
		},
		{
			name:       "unknown kind",
			recurrence: domain.ReconstituteRecurrence("monthly", nil, 0),
			expected:   domain.ErrInvalidRecurrence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NextOccurrence(domain.MustTimeOfDay(8, 0), tt.recurrence, at(2024, 1, 1, 9, 0))

			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestNextOccurrenceIsDeterministic(t *testing.T) {
	ref := at(2024, 3, 14, 15, 9)
	recurrences := []domain.Recurrence{
		domain.Daily(),
		mustWeekdays(t, time.Tuesday, time.Saturday),
		mustIntervalHours(t, 5),
		mustCustomDays(t, 4),
	}

	for _, rec := range recurrences {
		first, err := domain.NextOccurrence(domain.MustTimeOfDay(11, 45), rec, ref)
		require.NoError(t, err)

		second, err := domain.NextOccurrence(domain.MustTimeOfDay(11, 45), rec, ref)
		require.NoError(t, err)

		assert.Equal(t, first, second, rec.String())
	}
}

func TestNextOccurrenceDailyProperty(t *testing.T) {
	slot := domain.MustTimeOfDay(8, 0)
	start := at(2024, 1, 1, 0, 0)

	for ref := start; ref.Before(start.Add(48 * time.Hour)); ref = ref.Add(7 * time.Minute) {
		got, err := domain.NextOccurrence(slot, domain.Daily(), ref)
		require.NoError(t, err)

		today := slot.On(ref)
		if ref.Before(today) {
			assert.Equal(t, today, got, "ref %s", ref)
		} else {
			assert.Equal(t, today.AddDate(0, 0, 1), got, "ref %s", ref)
		}
	}
}

func TestNextOccurrenceWeekdaysProperty(t *testing.T) {
	daySets := [][]time.Weekday{
		{time.Monday},
		{time.Sunday, time.Saturday},
		{time.Tuesday, time.Thursday},
		domain.DefaultWeekdays,
		{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	}
	slot := domain.MustTimeOfDay(8, 30)
	start := at(2024, 1, 1, 0, 0)

	for _, days := range daySets {
		rec := mustWeekdays(t, days...)

		for ref := start; ref.Before(start.AddDate(0, 0, 14)); ref = ref.Add(97 * time.Minute) {
			got, err := domain.NextOccurrence(slot, rec, ref)
			require.NoError(t, err)

			assert.True(t, got.After(ref), "%s: %s not after %s", rec, got, ref)
			assert.True(t, rec.HasWeekday(got.Weekday()), "%s: weekday %s not in set", rec, got.Weekday())

			for day := slot.On(ref); day.Before(got); day = day.AddDate(0, 0, 1) {
				if day.After(ref) && rec.HasWeekday(day.Weekday()) {
					t.Fatalf("%s: earlier qualifying instant %s before %s (ref %s)", rec, day, got, ref)
				}
			}
		}
	}
}

func TestNextSlotOccurrenceSuccess(t *testing.T) {
	tests := []struct {
		name       string
		timeOfDay  domain.TimeOfDay
		recurrence domain.Recurrence
		ref        time.Time
		expected   time.Time
	}{
		{
			name:       "engine result already in the future",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			ref:        at(2024, 1, 1, 11, 0),
			expected:   at(2024, 1, 1, 13, 0),
		},
		{
			name:       "interval exhausted today restarts tomorrow",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			ref:        at(2024, 1, 1, 14, 0),
			expected:   at(2024, 1, 2, 10, 0),
		},
		{
			name:       "interval landing exactly on ref restarts tomorrow",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			ref:        at(2024, 1, 1, 13, 0),
			expected:   at(2024, 1, 2, 10, 0),
		},
		{
			name:       "daily unchanged",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: domain.Daily(),
			ref:        at(2024, 1, 1, 9, 0),
			expected:   at(2024, 1, 2, 8, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.NextSlotOccurrence(tt.timeOfDay, tt.recurrence, tt.ref)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsOccurrenceOf(t *testing.T) {
	tests := []struct {
		name       string
		timeOfDay  domain.TimeOfDay
		recurrence domain.Recurrence
		instant    time.Time
		expected   bool
	}{
		{
			name:       "daily matching time",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: domain.Daily(),
			instant:    at(2024, 1, 5, 8, 0),
			expected:   true,
		},
		{
			name:       "daily other time",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: domain.Daily(),
			instant:    at(2024, 1, 5, 8, 1),
			expected:   false,
		},
		{
			name:       "daily with seconds",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: domain.Daily(),
			instant:    at(2024, 1, 5, 8, 0).Add(time.Second),
			expected:   false,
		},
		{
			name:       "weekdays on listed day",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: mustWeekdays(t, time.Wednesday),
			instant:    at(2024, 1, 3, 8, 0),
			expected:   true,
		},
		{
			name:       "weekdays on unlisted day",
			timeOfDay:  domain.MustTimeOfDay(8, 0),
			recurrence: mustWeekdays(t, time.Wednesday),
			instant:    at(2024, 1, 4, 8, 0),
			expected:   false,
		},
		{
			name:       "interval at base time",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			instant:    at(2024, 1, 1, 10, 0),
			expected:   true,
		},
		{
			name:       "interval one step after base time",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			instant:    at(2024, 1, 1, 13, 0),
			expected:   true,
		},
		{
			name:       "interval two steps after base time",
			timeOfDay:  domain.MustTimeOfDay(10, 0),
			recurrence: mustIntervalHours(t, 3),
			instant:    at(2024, 1, 1, 16, 0),
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.IsOccurrenceOf(tt.timeOfDay, tt.recurrence, tt.instant))
		})
	}
}

func TestSlotSkippedBySpringForwardStaysAnOccurrence(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	slot := domain.MustTimeOfDay(2, 30)
	ref := time.Date(2024, 3, 10, 0, 0, 0, 0, newYork)

	tests := []struct {
		name       string
		recurrence domain.Recurrence
	}{
		{name: "daily", recurrence: domain.Daily()},
		{name: "weekdays", recurrence: mustWeekdays(t, time.Sunday)},
		{name: "custom days", recurrence: mustCustomDays(t, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := domain.NextSlotOccurrence(slot, tt.recurrence, ref)
			require.NoError(t, err)

			assert.Equal(t, 10, next.Day())
			assert.True(t, domain.IsOccurrenceOf(slot, tt.recurrence, next),
				"engine instant %s must count as an occurrence", next)
		})
	}
}
