package repository

import (
	"context"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

type actionLogRepositoryImpl struct {
	mu *sync.Mutex
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) domain.ActionLogRepository {
	return &actionLogRepositoryImpl{
		mu: &sync.Mutex{},
		db: db,
	}
}

func (r *actionLogRepositoryImpl) Append(ctx context.Context, entry *domain.LogEntry) (*domain.LogEntry, error) {
	if entry.ID().IsZero() {
		entry = entry.WithID(domain.NewLogEntryID())
	}

	m, err := FromLogEntity(entry)
	if err != nil {
		return nil, domain.NewStorageError("append log", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = runInTx(ctx, r.db, func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&LogEntryModel{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
			return err
		}

		m.Seq = maxSeq + 1

		return tx.Create(m).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to append log entry",
			"reminder_id", m.ReminderID,
			"error", err,
		)

		return nil, domain.NewStorageError("append log", err)
	}

	slog.DebugContext(ctx, "log entry appended",
		"log_id", m.ID,
		"reminder_id", m.ReminderID,
		"status", m.Status,
	)

	return entry, nil
}

func (r *actionLogRepositoryImpl) List(ctx context.Context) ([]*domain.LogEntry, error) {
	return r.find(ctx, r.db.WithContext(ctx))
}

func (r *actionLogRepositoryImpl) ListFor(ctx context.Context, reminderID domain.ReminderID) ([]*domain.LogEntry, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("reminder_id = ?", reminderID.String()))
}

func (r *actionLogRepositoryImpl) DeleteByID(ctx context.Context, id domain.LogEntryID) error {
	slog.DebugContext(ctx, "deleting log entry",
		"log_id", id.String(),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&LogEntryModel{})
	if result.Error != nil {
		return domain.NewStorageError("delete log", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrLogEntryNotFound
	}

	return nil
}

func (r *actionLogRepositoryImpl) DeleteFor(ctx context.Context, reminderID domain.ReminderID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.WithContext(ctx).Where("reminder_id = ?", reminderID.String()).Delete(&LogEntryModel{})
	if result.Error != nil {
		slog.ErrorContext(ctx, "failed to delete log entries for reminder",
			"reminder_id", reminderID.String(),
			"error", result.Error,
		)

		return 0, domain.NewStorageError("delete logs for reminder", result.Error)
	}

	slog.DebugContext(ctx, "log entries deleted for reminder",
		"reminder_id", reminderID.String(),
		"count", result.RowsAffected,
	)

	return int(result.RowsAffected), nil
}

func (r *actionLogRepositoryImpl) find(ctx context.Context, query *gorm.DB) ([]*domain.LogEntry, error) {
	var models []LogEntryModel

	if err := query.Order("action_time DESC").Order("seq DESC").Find(&models).Error; err != nil {
		slog.ErrorContext(ctx, "failed to list log entries",
			"error", err,
		)

		return nil, domain.NewStorageError("list logs", err)
	}

	entries := make([]*domain.LogEntry, 0, len(models))
	for _, m := range models {
		entry, err := m.ToEntity()
		if err != nil {
			slog.WarnContext(ctx, "skipping undecodable log row",
				"log_id", m.ID,
				"error", err,
			)

			continue
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
