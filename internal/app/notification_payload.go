package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

const (
	payloadTitle        = "💊 Medication Reminder"
	payloadSnoozedTitle = "💊 Medication Reminder (Snoozed)"

	dataReminderID     = "reminderId"
	dataMedicationName = "medicationName"
	dataSlot           = "slot"
	dataScheduledTime  = "scheduledTime"
)

func slotPayload(r *domain.Reminder, occ domain.ScheduledOccurrence) domain.Payload {
	return domain.Payload{
		Title: payloadTitle,
		Body:  fmt.Sprintf("Time to take %s", r.MedicationName().String()),
		Data: map[string]string{
			dataReminderID:     r.ID().String(),
			dataMedicationName: r.MedicationName().String(),
			dataSlot:           strconv.Itoa(occ.Slot.Index()),
			dataScheduledTime:  occ.ScheduledInstant.Format(time.RFC3339),
		},
	}
}

func snoozePayload(r *domain.Reminder, scheduledTime time.Time) domain.Payload {
	return domain.Payload{
		Title: payloadSnoozedTitle,
		Body:  fmt.Sprintf("Time to take %s", r.MedicationName().String()),
		Data: map[string]string{
			dataReminderID:     r.ID().String(),
			dataMedicationName: r.MedicationName().String(),
			dataScheduledTime:  scheduledTime.Format(time.RFC3339),
		},
	}
}

// scheduledTimeOf recovers the occurrence an event refers to. The payload
// wins over the trigger instant because a snooze fires later than the
// occurrence it postpones.
func scheduledTimeOf(ev domain.NotificationEvent) time.Time {
	if v, ok := ev.Data[dataScheduledTime]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}

	if !ev.FiresAt.IsZero() {
		return ev.FiresAt
	}

	return ev.At
}

// reminderIDOf resolves the reminder an event refers to from its trigger id,
// falling back to the payload for ids the scheduler did not mint.
func reminderIDOf(ev domain.NotificationEvent) (domain.TriggerRef, bool) {
	ref := domain.ParseTriggerID(ev.TriggerID)
	if ref.Kind != domain.TriggerUnknown {
		return ref, true
	}

	id, err := domain.ReminderIDFromString(ev.Data[dataReminderID])
	if err != nil {
		return ref, false
	}

	return domain.TriggerRef{Kind: domain.TriggerUnknown, ReminderID: id}, true
}
