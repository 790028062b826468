package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const snoozeTriggerPrefix = "snooze_"

// SlotID addresses one (reminder, time-of-day) pair. Its string form
// "<reminderID>_<slotIndex>" is the compound trigger id given to the backend.
type SlotID struct {
	reminderID ReminderID
	index      int
}

func NewSlotID(reminderID ReminderID, index int) SlotID {
	return SlotID{reminderID: reminderID, index: index}
}

func ParseSlotID(s string) (SlotID, error) {
	idPart, indexPart, ok := strings.Cut(s, "_")
	if !ok {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlotID, s)
	}

	reminderID, err := ReminderIDFromString(idPart)
	if err != nil {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlotID, s)
	}

	index, err := strconv.Atoi(indexPart)
	if err != nil || index < 0 {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlotID, s)
	}

	return SlotID{reminderID: reminderID, index: index}, nil
}

func (s SlotID) ReminderID() ReminderID {
	return s.reminderID
}

func (s SlotID) Index() int {
	return s.index
}

func (s SlotID) String() string {
	return fmt.Sprintf("%s_%d", s.reminderID.String(), s.index)
}

// SnoozeTriggerID names a one-shot snooze trigger for a reminder.
func SnoozeTriggerID(reminderID ReminderID, at time.Time) string {
	return fmt.Sprintf("%s%s_%d", snoozeTriggerPrefix, reminderID.String(), at.UnixMilli())
}

type TriggerKind int

const (
	TriggerUnknown TriggerKind = iota
	TriggerSlot
	TriggerSnooze
)

// TriggerRef is a decoded backend trigger id.
type TriggerRef struct {
	Kind       TriggerKind
	ReminderID ReminderID
	Slot       SlotID
}

// ParseTriggerID decodes ids produced by SlotID.String and SnoozeTriggerID.
// Ids of any other shape decode to TriggerUnknown and belong to someone else.
func ParseTriggerID(id string) TriggerRef {
	if rest, ok := strings.CutPrefix(id, snoozeTriggerPrefix); ok {
		idPart, _, _ := strings.Cut(rest, "_")

		reminderID, err := ReminderIDFromString(idPart)
		if err != nil {
			return TriggerRef{Kind: TriggerUnknown}
		}

		return TriggerRef{Kind: TriggerSnooze, ReminderID: reminderID}
	}

	slot, err := ParseSlotID(id)
	if err != nil {
		return TriggerRef{Kind: TriggerUnknown}
	}

	return TriggerRef{Kind: TriggerSlot, ReminderID: slot.ReminderID(), Slot: slot}
}

// ScheduledOccurrence is the derived next firing of one slot.
type ScheduledOccurrence struct {
	Slot             SlotID
	TimeOfDay        TimeOfDay
	ScheduledInstant time.Time
}

// Occurrences computes the next occurrence of every slot of r relative to ref.
func Occurrences(r *Reminder, ref time.Time) ([]ScheduledOccurrence, error) {
	out := make([]ScheduledOccurrence, 0, r.Times().Count())

	for i, at := range r.Times() {
		next, err := NextSlotOccurrence(at, r.Recurrence(), ref)
		if err != nil {
			return nil, err
		}

		out = append(out, ScheduledOccurrence{
			Slot:             NewSlotID(r.ID(), i),
			TimeOfDay:        at,
			ScheduledInstant: next,
		})
	}

	return out, nil
}
