package handler

import (
	"time"

	"github.com/KasumiMercury/primind-med-remind/internal/app"
)

type RecurrenceResponse struct {
	Type          string `json:"type"`
	Weekdays      []int  `json:"weekdays,omitempty"`
	IntervalHours int    `json:"interval_hours,omitempty"`
	IntervalDays  int    `json:"interval_days,omitempty"`
}

type ReminderResponse struct {
	ID             string             `json:"id"`
	MedicationName string             `json:"medication_name"`
	Times          []string           `json:"times"`
	Recurrence     RecurrenceResponse `json:"recurrence"`
	RRule          string             `json:"rrule,omitempty"`
	Enabled        bool               `json:"enabled"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	// Warnings lists slots the notification backend refused.
	Warnings []string `json:"warnings,omitempty"`
}

type RemindersResponse struct {
	Reminders []ReminderResponse `json:"reminders"`
	Count     int32              `json:"count"`
}

type LogEntryResponse struct {
	ID             string             `json:"id"`
	ReminderID     string             `json:"reminder_id"`
	ScheduledTime  time.Time          `json:"scheduled_time"`
	Status         string             `json:"status"`
	ActionTime     time.Time          `json:"action_time"`
	MedicationName string             `json:"medication_name"`
	Times          []string           `json:"times"`
	Recurrence     RecurrenceResponse `json:"recurrence"`
}

type LogEntriesResponse struct {
	Logs  []LogEntryResponse `json:"logs"`
	Count int32              `json:"count"`
}

type OccurrenceResponse struct {
	ReminderID     string    `json:"reminder_id"`
	MedicationName string    `json:"medication_name"`
	SlotID         string    `json:"slot_id"`
	TimeOfDay      string    `json:"time_of_day"`
	ScheduledTime  time.Time `json:"scheduled_time"`
}

type OccurrencesResponse struct {
	Occurrences []OccurrenceResponse `json:"occurrences"`
	Count       int32                `json:"count"`
}

type SnoozeResponse struct {
	TriggerID string    `json:"trigger_id"`
	FiresAt   time.Time `json:"fires_at"`
}

type TriggerResponse struct {
	ID      string    `json:"id"`
	FiresAt time.Time `json:"fires_at"`
	Title   string    `json:"title"`
}

type SlotStatusResponse struct {
	SlotID    string     `json:"slot_id"`
	State     string     `json:"state"`
	FiresAt   *time.Time `json:"fires_at,omitempty"`
	Deferred  bool       `json:"deferred"`
	Failures  int        `json:"failures"`
	LastError string     `json:"last_error,omitempty"`
	Escalated bool       `json:"escalated"`
}

type PendingOccurrenceResponse struct {
	TriggerID      string    `json:"trigger_id"`
	ReminderID     string    `json:"reminder_id"`
	MedicationName string    `json:"medication_name"`
	ScheduledTime  time.Time `json:"scheduled_time"`
	FiredAt        time.Time `json:"fired_at"`
	Snoozed        bool      `json:"snoozed"`
	State          string    `json:"state"`
}

type StatusResponse struct {
	Live      []TriggerResponse           `json:"live"`
	Slots     []SlotStatusResponse        `json:"slots"`
	Pending   []PendingOccurrenceResponse `json:"pending"`
	Escalated []SlotStatusResponse        `json:"escalated"`
}

type ReconcileResponse struct {
	Reason     string    `json:"reason"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Reminders  int       `json:"reminders"`
	Armed      int       `json:"armed"`
	Kept       int       `json:"kept"`
	Cancelled  int       `json:"cancelled"`
	Deferred   int       `json:"deferred"`
	Failed     int       `json:"failed"`
	Warnings   []string  `json:"warnings,omitempty"`
}

type DeletedLogsResponse struct {
	Deleted int `json:"deleted"`
}

type CancelledResponse struct {
	Cancelled int `json:"cancelled"`
}

type ClearDataResponse struct {
	Reminders int `json:"reminders"`
	Logs      int `json:"logs"`
	Cancelled int `json:"cancelled"`
}

type ErrorResponse struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func FromRecurrenceDTO(output app.RecurrenceOutput) RecurrenceResponse {
	return RecurrenceResponse{
		Type:          output.Type,
		Weekdays:      output.Weekdays,
		IntervalHours: output.IntervalHours,
		IntervalDays:  output.IntervalDays,
	}
}

func FromDTO(output app.ReminderOutput) ReminderResponse {
	return ReminderResponse{
		ID:             output.ID,
		MedicationName: output.MedicationName,
		Times:          output.Times,
		Recurrence:     FromRecurrenceDTO(output.Recurrence),
		RRule:          output.RRule,
		Enabled:        output.Enabled,
		CreatedAt:      output.CreatedAt,
		UpdatedAt:      output.UpdatedAt,
	}
}

func FromResultDTO(result app.ReminderResult) ReminderResponse {
	resp := FromDTO(result.Reminder)
	resp.Warnings = result.Warnings

	return resp
}

func FromDTOs(output app.RemindersOutput) RemindersResponse {
	reminders := make([]ReminderResponse, 0, len(output.Reminders))
	for _, r := range output.Reminders {
		reminders = append(reminders, FromDTO(r))
	}

	return RemindersResponse{
		Reminders: reminders,
		Count:     output.Count,
	}
}

func FromLogDTO(output app.LogEntryOutput) LogEntryResponse {
	return LogEntryResponse{
		ID:             output.ID,
		ReminderID:     output.ReminderID,
		ScheduledTime:  output.ScheduledTime,
		Status:         output.Status,
		ActionTime:     output.ActionTime,
		MedicationName: output.MedicationName,
		Times:          output.Times,
		Recurrence:     FromRecurrenceDTO(output.Recurrence),
	}
}

func FromLogDTOs(output app.LogEntriesOutput) LogEntriesResponse {
	logs := make([]LogEntryResponse, 0, len(output.Logs))
	for _, l := range output.Logs {
		logs = append(logs, FromLogDTO(l))
	}

	return LogEntriesResponse{
		Logs:  logs,
		Count: output.Count,
	}
}

func FromOccurrenceDTOs(output []app.OccurrenceOutput) OccurrencesResponse {
	occurrences := make([]OccurrenceResponse, 0, len(output))
	for _, o := range output {
		occurrences = append(occurrences, OccurrenceResponse{
			ReminderID:     o.ReminderID,
			MedicationName: o.MedicationName,
			SlotID:         o.SlotID,
			TimeOfDay:      o.TimeOfDay,
			ScheduledTime:  o.ScheduledTime,
		})
	}

	return OccurrencesResponse{
		Occurrences: occurrences,
		Count:       int32(len(occurrences)), //nolint:gosec
	}
}

func fromSlotStatuses(slots []app.SlotStatus) []SlotStatusResponse {
	out := make([]SlotStatusResponse, 0, len(slots))

	for _, s := range slots {
		resp := SlotStatusResponse{
			SlotID:    s.SlotID,
			State:     string(s.State),
			Deferred:  s.Deferred,
			Failures:  s.Failures,
			LastError: s.LastError,
			Escalated: s.Escalated,
		}

		if !s.FiresAt.IsZero() {
			firesAt := s.FiresAt
			resp.FiresAt = &firesAt
		}

		out = append(out, resp)
	}

	return out
}

func FromStatusDTO(output app.StatusOutput) StatusResponse {
	live := make([]TriggerResponse, 0, len(output.Live))
	for _, t := range output.Live {
		live = append(live, TriggerResponse{ID: t.ID, FiresAt: t.FiresAt, Title: t.Title})
	}

	pending := make([]PendingOccurrenceResponse, 0, len(output.Pending))
	for _, p := range output.Pending {
		pending = append(pending, PendingOccurrenceResponse{
			TriggerID:      p.TriggerID,
			ReminderID:     p.ReminderID,
			MedicationName: p.MedicationName,
			ScheduledTime:  p.ScheduledTime,
			FiredAt:        p.FiredAt,
			Snoozed:        p.Snoozed,
			State:          string(p.State),
		})
	}

	return StatusResponse{
		Live:      live,
		Slots:     fromSlotStatuses(output.Slots),
		Pending:   pending,
		Escalated: fromSlotStatuses(output.Escalated),
	}
}

func FromReconcileReport(report app.ReconcileReport) ReconcileResponse {
	return ReconcileResponse{
		Reason:     report.Reason,
		StartedAt:  report.StartedAt,
		DurationMs: report.Duration.Milliseconds(),
		Reminders:  report.Reminders,
		Armed:      report.Armed,
		Kept:       report.Kept,
		Cancelled:  report.Cancelled,
		Deferred:   report.Deferred,
		Failed:     report.Failed,
		Warnings:   report.Warnings,
	}
}

func FromClearDataDTO(output app.ClearDataOutput) ClearDataResponse {
	return ClearDataResponse{
		Reminders: output.Reminders,
		Logs:      output.Logs,
		Cancelled: output.Cancelled,
	}
}
