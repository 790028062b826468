package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var timeOfDayPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// TimeOfDay is a wall-clock hour and minute, independent of any date or zone.
type TimeOfDay struct {
	hour   int
	minute int
}

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}

	return TimeOfDay{hour: hour, minute: minute}, nil
}

func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}

	return t
}

// ParseTimeOfDay accepts "H:MM" or "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if !timeOfDayPattern.MatchString(s) {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	hh, mm, _ := strings.Cut(s, ":")

	hour, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	minute, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	return NewTimeOfDay(hour, minute)
}

func (t TimeOfDay) Hour() int {
	return t.hour
}

func (t TimeOfDay) Minute() int {
	return t.minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// On returns the instant at this time of day on the calendar day of ref, in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.hour, t.minute, 0, 0, ref.Location())
}

// Matches reports whether instant is where On places this time of day on
// instant's calendar day. A wall time skipped by a DST jump matches the
// instant it normalises to.
func (t TimeOfDay) Matches(instant time.Time) bool {
	return t.On(instant).Equal(instant)
}

func (t TimeOfDay) minutes() int {
	return t.hour*60 + t.minute
}

// TimesOfDay is the ordered, duplicate-free list of a reminder's slots.
// The position of a time in the list is its slot index.
type TimesOfDay []TimeOfDay

func NewTimesOfDay(times []TimeOfDay) (TimesOfDay, error) {
	if len(times) == 0 {
		return nil, ErrEmptyTimes
	}

	seen := make(map[TimeOfDay]struct{}, len(times))
	result := make(TimesOfDay, 0, len(times))

	for _, t := range times {
		if _, dup := seen[t]; dup {
			continue
		}

		seen[t] = struct{}{}
		result = append(result, t)
	}

	return result, nil
}

func ParseTimesOfDay(values []string) (TimesOfDay, error) {
	times := make([]TimeOfDay, 0, len(values))

	for _, v := range values {
		t, err := ParseTimeOfDay(v)
		if err != nil {
			return nil, err
		}

		times = append(times, t)
	}

	return NewTimesOfDay(times)
}

func (ts TimesOfDay) Count() int {
	return len(ts)
}

func (ts TimesOfDay) Strings() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}

	return out
}

// Sorted returns a copy ordered from earliest to latest in the day.
func (ts TimesOfDay) Sorted() TimesOfDay {
	out := make(TimesOfDay, len(ts))
	copy(out, ts)
	sort.Slice(out, func(i, j int) bool {
		return out[i].minutes() < out[j].minutes()
	})

	return out
}

func (ts TimesOfDay) Equals(other TimesOfDay) bool {
	if len(ts) != len(other) {
		return false
	}

	for i := range ts {
		if ts[i] != other[i] {
			return false
		}
	}

	return true
}
