package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

type RecurrenceKind string

const (
	RecurrenceDaily         RecurrenceKind = "daily"
	RecurrenceWeekdays      RecurrenceKind = "weekdays"
	RecurrenceIntervalHours RecurrenceKind = "interval"
	RecurrenceCustomDays    RecurrenceKind = "custom"
)

// DefaultWeekdays applies when a weekdays recurrence is declared without a day list.
var DefaultWeekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// Recurrence is the tagged variant Daily | Weekdays{days} | IntervalHours{n} | CustomDays{n}.
type Recurrence struct {
	kind     RecurrenceKind
	weekdays []time.Weekday
	interval int
}

func Daily() Recurrence {
	return Recurrence{kind: RecurrenceDaily}
}

func Weekdays(days ...time.Weekday) (Recurrence, error) {
	if len(days) == 0 {
		return Recurrence{}, ErrEmptyWeekdays
	}

	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return Recurrence{}, fmt.Errorf("%w: weekday %d out of range", ErrInvalidRecurrence, d)
		}

		set[d] = struct{}{}
	}

	normalized := make([]time.Weekday, 0, len(set))
	for d := range set {
		normalized = append(normalized, d)
	}

	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })

	return Recurrence{kind: RecurrenceWeekdays, weekdays: normalized}, nil
}

func IntervalHours(n int) (Recurrence, error) {
	if n < 1 {
		return Recurrence{}, fmt.Errorf("%w: hours=%d", ErrInvalidInterval, n)
	}

	return Recurrence{kind: RecurrenceIntervalHours, interval: n}, nil
}

func CustomDays(n int) (Recurrence, error) {
	if n < 1 {
		return Recurrence{}, fmt.Errorf("%w: days=%d", ErrInvalidInterval, n)
	}

	return Recurrence{kind: RecurrenceCustomDays, interval: n}, nil
}

// NewRecurrence builds a recurrence from its wire form. A nil weekday list on a
// weekdays recurrence selects DefaultWeekdays; an explicitly empty one is rejected.
// A zero interval defaults to 1.
func NewRecurrence(kind string, weekdays []int, intervalHours, intervalDays int) (Recurrence, error) {
	switch RecurrenceKind(strings.ToLower(strings.TrimSpace(kind))) {
	case RecurrenceDaily:
		return Daily(), nil
	case RecurrenceWeekdays:
		if weekdays == nil {
			return Weekdays(DefaultWeekdays...)
		}

		days := make([]time.Weekday, 0, len(weekdays))
		for _, d := range weekdays {
			days = append(days, time.Weekday(d))
		}

		return Weekdays(days...)
	case RecurrenceIntervalHours:
		if intervalHours == 0 {
			intervalHours = 1
		}

		return IntervalHours(intervalHours)
	case RecurrenceCustomDays:
		if intervalDays == 0 {
			intervalDays = 1
		}

		return CustomDays(intervalDays)
	default:
		return Recurrence{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRecurrence, kind)
	}
}

// ReconstituteRecurrence rebuilds a persisted recurrence without validation.
func ReconstituteRecurrence(kind RecurrenceKind, weekdays []time.Weekday, interval int) Recurrence {
	days := make([]time.Weekday, len(weekdays))
	copy(days, weekdays)

	return Recurrence{kind: kind, weekdays: days, interval: interval}
}

func (r Recurrence) Kind() RecurrenceKind {
	return r.kind
}

func (r Recurrence) Weekdays() []time.Weekday {
	out := make([]time.Weekday, len(r.weekdays))
	copy(out, r.weekdays)

	return out
}

func (r Recurrence) HasWeekday(d time.Weekday) bool {
	for _, w := range r.weekdays {
		if w == d {
			return true
		}
	}

	return false
}

// IntervalHours is n for an IntervalHours recurrence and 0 otherwise.
func (r Recurrence) IntervalHours() int {
	if r.kind != RecurrenceIntervalHours {
		return 0
	}

	return r.interval
}

// IntervalDays is n for a CustomDays recurrence and 0 otherwise.
func (r Recurrence) IntervalDays() int {
	if r.kind != RecurrenceCustomDays {
		return 0
	}

	return r.interval
}

func (r Recurrence) IsZero() bool {
	return r.kind == ""
}

func (r Recurrence) Equals(other Recurrence) bool {
	if r.kind != other.kind || r.interval != other.interval || len(r.weekdays) != len(other.weekdays) {
		return false
	}

	for i := range r.weekdays {
		if r.weekdays[i] != other.weekdays[i] {
			return false
		}
	}

	return true
}

func (r Recurrence) String() string {
	switch r.kind {
	case RecurrenceWeekdays:
		names := make([]string, len(r.weekdays))
		for i, d := range r.weekdays {
			names[i] = d.String()[:3]
		}

		return fmt.Sprintf("weekdays(%s)", strings.Join(names, ","))
	case RecurrenceIntervalHours:
		return fmt.Sprintf("every %dh", r.interval)
	case RecurrenceCustomDays:
		return fmt.Sprintf("every %dd", r.interval)
	default:
		return string(r.kind)
	}
}

var rruleWeekdays = [...]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// RRule renders the closest RFC 5545 description for calendar export, one
// RRULE line per distinct minute so BYHOUR and BYMINUTE never combine into
// times the reminder does not have. Interval recurrences are approximated:
// the engine re-anchors them on each day.
func (r Recurrence) RRule(times TimesOfDay) string {
	return strings.Join(r.RRules(times), "\n")
}

// RRules returns the lines RRule joins.
func (r Recurrence) RRules(times TimesOfDay) []string {
	hoursByMinute := make(map[int][]int)

	var minutes []int

	for _, t := range times.Sorted() {
		if _, ok := hoursByMinute[t.Minute()]; !ok {
			minutes = append(minutes, t.Minute())
		}

		hoursByMinute[t.Minute()] = appendUnique(hoursByMinute[t.Minute()], t.Hour())
	}

	if len(minutes) == 0 {
		opt := r.rruleOption()

		return []string{opt.RRuleString()}
	}

	sort.Ints(minutes)

	rules := make([]string, 0, len(minutes))

	for _, minute := range minutes {
		opt := r.rruleOption()
		opt.Byminute = []int{minute}

		if r.kind != RecurrenceIntervalHours {
			opt.Byhour = hoursByMinute[minute]
		}

		rules = append(rules, opt.RRuleString())
	}

	return rules
}

func (r Recurrence) rruleOption() rrule.ROption {
	opt := rrule.ROption{}

	switch r.kind {
	case RecurrenceWeekdays:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.weekdays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	case RecurrenceIntervalHours:
		opt.Freq = rrule.HOURLY
		opt.Interval = r.interval
	case RecurrenceCustomDays:
		opt.Freq = rrule.DAILY
		opt.Interval = r.interval
	default:
		opt.Freq = rrule.DAILY
	}

	return opt
}

func appendUnique(values []int, v int) []int {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}

	return append(values, v)
}
