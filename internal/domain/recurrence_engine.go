package domain

import (
	"fmt"
	"time"
)

// NextOccurrence returns the next instant at which a slot firing at `at` under
// rec should fire, relative to ref. It is pure: the result depends only on its
// arguments, and all calendar arithmetic happens in ref's location.
//
// IntervalHours and CustomDays add their interval once when today's candidate
// has passed; they do not catch up, so the result may not be after ref.
// NextSlotOccurrence is the variant that always yields a future instant.
func NextOccurrence(at TimeOfDay, rec Recurrence, ref time.Time) (time.Time, error) {
	candidate := at.On(ref)

	switch rec.Kind() {
	case RecurrenceDaily:
		if !candidate.After(ref) {
			candidate = candidate.AddDate(0, 0, 1)
		}

		return candidate, nil

	case RecurrenceWeekdays:
		if len(rec.weekdays) == 0 {
			return time.Time{}, ErrEmptyWeekdays
		}

		for offset := 0; offset < 7; offset++ {
			day := candidate.AddDate(0, 0, offset)
			if !rec.HasWeekday(day.Weekday()) {
				continue
			}

			if offset > 0 || day.After(ref) {
				return day, nil
			}
		}

		// Only the reference weekday qualifies and its time has passed.
		return candidate.AddDate(0, 0, 7), nil

	case RecurrenceIntervalHours:
		if !candidate.After(ref) {
			candidate = candidate.Add(time.Duration(rec.interval) * time.Hour)
		}

		return candidate, nil

	case RecurrenceCustomDays:
		if !candidate.After(ref) {
			candidate = candidate.AddDate(0, 0, rec.interval)
		}

		return candidate, nil

	default:
		return time.Time{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRecurrence, rec.Kind())
	}
}

// NextSlotOccurrence is NextOccurrence constrained to be strictly after ref.
// When the engine's single interval step lands at or before ref, the slot is
// re-derived from the next local midnight, which starts a fresh cycle.
func NextSlotOccurrence(at TimeOfDay, rec Recurrence, ref time.Time) (time.Time, error) {
	next, err := NextOccurrence(at, rec, ref)
	if err != nil {
		return time.Time{}, err
	}

	if next.After(ref) {
		return next, nil
	}

	midnight := time.Date(ref.Year(), ref.Month(), ref.Day()+1, 0, 0, 0, 0, ref.Location())

	return NextOccurrence(at, rec, midnight)
}

// IsOccurrenceOf reports whether instant is an instant the slot could
// legitimately fire at under rec.
func IsOccurrenceOf(at TimeOfDay, rec Recurrence, instant time.Time) bool {
	switch rec.Kind() {
	case RecurrenceDaily, RecurrenceCustomDays:
		return at.Matches(instant)
	case RecurrenceWeekdays:
		return at.Matches(instant) && rec.HasWeekday(instant.Weekday())
	case RecurrenceIntervalHours:
		return at.Matches(instant) ||
			at.Matches(instant.Add(-time.Duration(rec.interval)*time.Hour))
	default:
		return false
	}
}
