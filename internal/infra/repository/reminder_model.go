package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/record"
)

// Timestamps are written explicitly by the repositories, so gorm's automatic
// tracking is switched off on every time column.
type ReminderModel struct {
	ID             string         `gorm:"column:id;size:36;primaryKey"`
	MedicationName string         `gorm:"column:medication_name;size:255;not null"`
	Times          datatypes.JSON `gorm:"column:times;not null"`
	Recurrence     datatypes.JSON `gorm:"column:recurrence;not null"`
	Enabled        bool           `gorm:"column:enabled;not null;index:idx_reminders_enabled"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (ReminderModel) TableName() string {
	return "reminders"
}

type LogEntryModel struct {
	ID             string         `gorm:"column:id;size:36;primaryKey"`
	ReminderID     string         `gorm:"column:reminder_id;size:36;not null;index:idx_action_logs_reminder_id"`
	ScheduledTime  time.Time      `gorm:"column:scheduled_time;not null"`
	Status         string         `gorm:"column:status;size:16;not null"`
	ActionTime     time.Time      `gorm:"column:action_time;not null;index:idx_action_logs_action_time"`
	MedicationName string         `gorm:"column:medication_name;size:255;not null"`
	Times          datatypes.JSON `gorm:"column:times;not null"`
	Recurrence     datatypes.JSON `gorm:"column:recurrence;not null"`
	Seq            int64          `gorm:"column:seq;not null;index:idx_action_logs_seq"`
}

func (LogEntryModel) TableName() string {
	return "action_logs"
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&ReminderModel{}, &LogEntryModel{}}
}

func (m *ReminderModel) ToEntity() (*domain.Reminder, error) {
	rec := record.Reminder{
		ID:             m.ID,
		MedicationName: m.MedicationName,
		Enabled:        m.Enabled,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if err := json.Unmarshal(m.Times, &rec.Times); err != nil {
		return nil, fmt.Errorf("decode times of reminder %s: %w", m.ID, err)
	}

	if err := json.Unmarshal(m.Recurrence, &rec.Recurrence); err != nil {
		return nil, fmt.Errorf("decode recurrence of reminder %s: %w", m.ID, err)
	}

	return rec.ToEntity()
}

func FromEntity(e *domain.Reminder) (*ReminderModel, error) {
	rec := record.FromReminder(e)

	times, recurrence, err := encodeSnapshot(rec.Times, rec.Recurrence)
	if err != nil {
		return nil, err
	}

	return &ReminderModel{
		ID:             rec.ID,
		MedicationName: rec.MedicationName,
		Times:          times,
		Recurrence:     recurrence,
		Enabled:        rec.Enabled,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func (m *LogEntryModel) ToEntity() (*domain.LogEntry, error) {
	rec := record.Log{
		ID:             m.ID,
		ReminderID:     m.ReminderID,
		ScheduledTime:  m.ScheduledTime,
		Status:         m.Status,
		ActionTime:     m.ActionTime,
		MedicationName: m.MedicationName,
	}

	if err := json.Unmarshal(m.Times, &rec.Times); err != nil {
		return nil, fmt.Errorf("decode times of log %s: %w", m.ID, err)
	}

	if err := json.Unmarshal(m.Recurrence, &rec.Recurrence); err != nil {
		return nil, fmt.Errorf("decode recurrence of log %s: %w", m.ID, err)
	}

	return rec.ToEntity()
}

func FromLogEntity(e *domain.LogEntry) (*LogEntryModel, error) {
	rec := record.FromLogEntry(e)

	times, recurrence, err := encodeSnapshot(rec.Times, rec.Recurrence)
	if err != nil {
		return nil, err
	}

	return &LogEntryModel{
		ID:             rec.ID,
		ReminderID:     rec.ReminderID,
		ScheduledTime:  rec.ScheduledTime,
		Status:         rec.Status,
		ActionTime:     rec.ActionTime,
		MedicationName: rec.MedicationName,
		Times:          times,
		Recurrence:     recurrence,
	}, nil
}

func encodeSnapshot(times []string, recurrence record.Recurrence) (datatypes.JSON, datatypes.JSON, error) {
	rawTimes, err := json.Marshal(times)
	if err != nil {
		return nil, nil, fmt.Errorf("encode times: %w", err)
	}

	rawRecurrence, err := json.Marshal(recurrence)
	if err != nil {
		return nil, nil, fmt.Errorf("encode recurrence: %w", err)
	}

	return datatypes.JSON(rawTimes), datatypes.JSON(rawRecurrence), nil
}
