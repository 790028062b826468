package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

type reminderRepositoryImpl struct {
	// mu serializes read-modify-write cycles on the reminders table.
	mu  *sync.Mutex
	db  *gorm.DB
	clk clock.Clock
}

func NewReminderRepository(db *gorm.DB, clk clock.Clock) domain.ReminderRepository {
	return &reminderRepositoryImpl{
		mu:  &sync.Mutex{},
		db:  db,
		clk: clk,
	}
}

func (r *reminderRepositoryImpl) now() time.Time {
	return r.clk.Now().UTC().Truncate(time.Microsecond)
}

func nextUpdatedAt(now, previous time.Time) time.Time {
	if now.After(previous) {
		return now
	}

	return previous.Add(time.Microsecond)
}

func (r *reminderRepositoryImpl) Upsert(ctx context.Context, reminder *domain.Reminder) (*domain.Reminder, error) {
	slog.DebugContext(ctx, "upserting reminder in database",
		"reminder_id", reminder.ID().String(),
	)

	m, err := FromEntity(reminder)
	if err != nil {
		return nil, domain.NewStorageError("upsert reminder", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.withTx(ctx, func(tx *gorm.DB) error {
		var existing ReminderModel

		result := tx.Where("id = ?", m.ID).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}

		now := r.now()

		if result.RowsAffected == 0 {
			m.CreatedAt = now
			m.UpdatedAt = now

			return tx.Create(m).Error
		}

		m.CreatedAt = existing.CreatedAt
		m.UpdatedAt = nextUpdatedAt(now, existing.UpdatedAt)

		return tx.Save(m).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert reminder in database",
			"reminder_id", reminder.ID().String(),
			"error", err,
		)

		return nil, domain.NewStorageError("upsert reminder", err)
	}

	slog.DebugContext(ctx, "reminder upserted in database",
		"reminder_id", reminder.ID().String(),
	)

	return reminder.Stamped(m.CreatedAt, m.UpdatedAt), nil
}

func (r *reminderRepositoryImpl) Get(ctx context.Context, id domain.ReminderID) (*domain.Reminder, error) {
	slog.DebugContext(ctx, "finding reminder by ID",
		"reminder_id", id.String(),
	)

	var m ReminderModel

	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.DebugContext(ctx, "reminder not found",
				"reminder_id", id.String(),
			)

			return nil, domain.ErrReminderNotFound
		}

		slog.ErrorContext(ctx, "failed to find reminder by ID",
			"reminder_id", id.String(),
			"error", result.Error,
		)

		return nil, domain.NewStorageError("get reminder", result.Error)
	}

	reminder, err := m.ToEntity()
	if err != nil {
		return nil, domain.NewStorageError("get reminder", err)
	}

	return reminder, nil
}

func (r *reminderRepositoryImpl) List(ctx context.Context) ([]*domain.Reminder, error) {
	var models []ReminderModel

	result := r.db.WithContext(ctx).Order("created_at ASC").Find(&models)
	if result.Error != nil {
		slog.ErrorContext(ctx, "failed to list reminders",
			"error", result.Error,
		)

		return nil, domain.NewStorageError("list reminders", result.Error)
	}

	reminders := make([]*domain.Reminder, 0, len(models))
	for _, m := range models {
		reminder, err := m.ToEntity()
		if err != nil {
			slog.WarnContext(ctx, "skipping undecodable reminder row",
				"reminder_id", m.ID,
				"error", err,
			)

			continue
		}

		reminders = append(reminders, reminder)
	}

	slog.DebugContext(ctx, "reminders listed",
		"count", len(reminders),
	)

	return reminders, nil
}

func (r *reminderRepositoryImpl) Delete(ctx context.Context, id domain.ReminderID) error {
	slog.DebugContext(ctx, "deleting reminder from database",
		"reminder_id", id.String(),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&ReminderModel{})
	if result.Error != nil {
		slog.ErrorContext(ctx, "failed to delete reminder from database",
			"reminder_id", id.String(),
			"error", result.Error,
		)

		return domain.NewStorageError("delete reminder", result.Error)
	}

	if result.RowsAffected == 0 {
		slog.DebugContext(ctx, "reminder not found for deletion",
			"reminder_id", id.String(),
		)

		return domain.ErrReminderNotFound
	}

	return nil
}

func (r *reminderRepositoryImpl) SetEnabled(ctx context.Context, id domain.ReminderID, enabled bool) (*domain.Reminder, error) {
	slog.DebugContext(ctx, "setting reminder enabled in database",
		"reminder_id", id.String(),
		"enabled", enabled,
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	var m ReminderModel

	err := r.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id.String()).First(&m).Error; err != nil {
			return err
		}

		m.Enabled = enabled
		m.UpdatedAt = nextUpdatedAt(r.now(), m.UpdatedAt)

		return tx.Model(&ReminderModel{}).
			Where("id = ?", m.ID).
			Updates(map[string]any{
				"enabled":    m.Enabled,
				"updated_at": m.UpdatedAt,
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReminderNotFound
		}

		slog.ErrorContext(ctx, "failed to set reminder enabled",
			"reminder_id", id.String(),
			"error", err,
		)

		return nil, domain.NewStorageError("set reminder enabled", err)
	}

	reminder, err := m.ToEntity()
	if err != nil {
		return nil, domain.NewStorageError("set reminder enabled", err)
	}

	return reminder, nil
}

func (r *reminderRepositoryImpl) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, r.db, fn)
}

func runInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		slog.ErrorContext(ctx, "failed to begin transaction",
			"error", tx.Error,
		)

		return tx.Error
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			slog.ErrorContext(ctx, "failed to rollback transaction",
				"error", rbErr,
				"original_error", err,
			)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		slog.ErrorContext(ctx, "failed to commit transaction",
			"error", err,
		)

		return err
	}

	return nil
}
