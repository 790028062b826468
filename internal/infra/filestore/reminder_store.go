package filestore

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jmhodges/clock"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/collection"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/record"
)

const (
	RemindersFile = "reminders.json"
	LogsFile      = "logs.json"
)

type reminderStore struct {
	reminders *collection.Collection[record.Reminder]
	clk       clock.Clock
}

func NewReminderStore(reminders *collection.Collection[record.Reminder], clk clock.Clock) domain.ReminderRepository {
	return &reminderStore{
		reminders: reminders,
		clk:       clk,
	}
}

// OpenReminderStore opens the reminder collection under dir.
func OpenReminderStore(dir string, clk clock.Clock) (domain.ReminderRepository, error) {
	c, err := collection.Open[record.Reminder](filepath.Join(dir, RemindersFile))
	if err != nil {
		return nil, err
	}

	return NewReminderStore(c, clk), nil
}

// nextUpdatedAt keeps updatedAt strictly increasing for one reminder even
// when the clock has not moved.
func nextUpdatedAt(now, previous time.Time) time.Time {
	if now.After(previous) {
		return now
	}

	return previous.Add(time.Microsecond)
}

func (s *reminderStore) now() time.Time {
	return s.clk.Now().UTC().Truncate(time.Microsecond)
}

func (s *reminderStore) Upsert(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error) {
	slog.DebugContext(ctx, "upserting reminder",
		"reminder_id", r.ID().String(),
	)

	var saved record.Reminder

	err := s.reminders.Mutate("upsert reminder", func(items []record.Reminder) ([]record.Reminder, error) {
		now := s.now()
		rec := record.FromReminder(r)

		for i := range items {
			if items[i].ID != rec.ID {
				continue
			}

			rec.CreatedAt = items[i].CreatedAt
			rec.UpdatedAt = nextUpdatedAt(now, items[i].UpdatedAt)
			items[i] = rec
			saved = rec

			return items, nil
		}

		rec.CreatedAt = now
		rec.UpdatedAt = now
		saved = rec

		return append(items, rec), nil
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "reminder upserted",
		"reminder_id", saved.ID,
		"updated_at", saved.UpdatedAt,
	)

	return r.Stamped(saved.CreatedAt, saved.UpdatedAt), nil
}

func (s *reminderStore) Get(ctx context.Context, id domain.ReminderID) (*domain.Reminder, error) {
	for _, rec := range s.reminders.Items() {
		if rec.ID != id.String() {
			continue
		}

		r, err := rec.ToEntity()
		if err != nil {
			slog.ErrorContext(ctx, "failed to decode reminder record",
				"reminder_id", rec.ID,
				"error", err,
			)

			return nil, domain.NewStorageError("get reminder", err)
		}

		return r, nil
	}

	return nil, domain.ErrReminderNotFound
}

// List skips records that no longer decode; they stay on disk untouched.
func (s *reminderStore) List(ctx context.Context) ([]*domain.Reminder, error) {
	items := s.reminders.Items()
	reminders := make([]*domain.Reminder, 0, len(items))

	for _, rec := range items {
		r, err := rec.ToEntity()
		if err != nil {
			slog.WarnContext(ctx, "skipping undecodable reminder record",
				"reminder_id", rec.ID,
				"error", err,
			)

			continue
		}

		reminders = append(reminders, r)
	}

	return reminders, nil
}

func (s *reminderStore) Delete(ctx context.Context, id domain.ReminderID) error {
	slog.DebugContext(ctx, "deleting reminder",
		"reminder_id", id.String(),
	)

	return s.reminders.Mutate("delete reminder", func(items []record.Reminder) ([]record.Reminder, error) {
		for i := range items {
			if items[i].ID == id.String() {
				return append(items[:i], items[i+1:]...), nil
			}
		}

		return nil, domain.ErrReminderNotFound
	})
}

func (s *reminderStore) SetEnabled(ctx context.Context, id domain.ReminderID, enabled bool) (*domain.Reminder, error) {
	slog.DebugContext(ctx, "setting reminder enabled",
		"reminder_id", id.String(),
		"enabled", enabled,
	)

	var saved record.Reminder

	err := s.reminders.Mutate("set reminder enabled", func(items []record.Reminder) ([]record.Reminder, error) {
		for i := range items {
			if items[i].ID != id.String() {
				continue
			}

			items[i].Enabled = enabled
			items[i].UpdatedAt = nextUpdatedAt(s.now(), items[i].UpdatedAt)
			saved = items[i]

			return items, nil
		}

		return nil, domain.ErrReminderNotFound
	})
	if err != nil {
		return nil, err
	}

	r, err := saved.ToEntity()
	if err != nil {
		return nil, domain.NewStorageError("set reminder enabled", err)
	}

	return r, nil
}
