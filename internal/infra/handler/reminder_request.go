package handler

import (
	"time"

	"github.com/KasumiMercury/primind-med-remind/internal/app"
)

type RecurrenceRequest struct {
	Type          string `json:"type" binding:"required"`
	Weekdays      []int  `json:"weekdays"`
	IntervalHours int    `json:"interval_hours"`
	IntervalDays  int    `json:"interval_days"`
}

type CreateReminderRequest struct {
	MedicationName string            `json:"medication_name" binding:"required"`
	Times          []string          `json:"times" binding:"required,min=1"`
	Recurrence     RecurrenceRequest `json:"recurrence"`
	Enabled        *bool             `json:"enabled"`
}

// UpdateReminderRequest carries only the fields to change.
type UpdateReminderRequest struct {
	MedicationName *string            `json:"medication_name"`
	Times          []string           `json:"times" binding:"omitempty,min=1"`
	Recurrence     *RecurrenceRequest `json:"recurrence"`
	Enabled        *bool              `json:"enabled"`
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type RecordOutcomeRequest struct {
	ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
	Status        string    `json:"status" binding:"required"`
}

type SnoozeRequest struct {
	ScheduledTime time.Time `json:"scheduled_time"`
}

type ListLogsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=0"`
}

type NotificationEventRequest struct {
	Type      string            `json:"type" binding:"required"`
	TriggerID string            `json:"trigger_id"`
	FiresAt   time.Time         `json:"fires_at"`
	Action    string            `json:"action"`
	Data      map[string]string `json:"data"`
}

type ReconcileRequest struct {
	Reason string `form:"reason" binding:"omitempty,oneof=startup schedule foreground manual"`
}

func (r RecurrenceRequest) toInput() app.RecurrenceInput {
	return app.RecurrenceInput{
		Type:          r.Type,
		Weekdays:      r.Weekdays,
		IntervalHours: r.IntervalHours,
		IntervalDays:  r.IntervalDays,
	}
}
