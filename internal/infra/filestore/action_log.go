package filestore

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/collection"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/record"
)

type actionLog struct {
	logs *collection.Collection[record.Log]
}

func NewActionLog(logs *collection.Collection[record.Log]) domain.ActionLogRepository {
	return &actionLog{logs: logs}
}

func OpenActionLog(dir string) (domain.ActionLogRepository, error) {
	c, err := collection.Open[record.Log](filepath.Join(dir, LogsFile))
	if err != nil {
		return nil, err
	}

	return NewActionLog(c), nil
}

func (a *actionLog) Append(ctx context.Context, entry *domain.LogEntry) (*domain.LogEntry, error) {
	if entry.ID().IsZero() {
		entry = entry.WithID(domain.NewLogEntryID())
	}

	rec := record.FromLogEntry(entry)

	err := a.logs.Mutate("append log", func(items []record.Log) ([]record.Log, error) {
		return append(items, rec), nil
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "log entry appended",
		"log_id", rec.ID,
		"reminder_id", rec.ReminderID,
		"status", rec.Status,
	)

	return entry, nil
}

func (a *actionLog) List(ctx context.Context) ([]*domain.LogEntry, error) {
	return a.collect(ctx, func(record.Log) bool { return true }), nil
}

func (a *actionLog) ListFor(ctx context.Context, reminderID domain.ReminderID) ([]*domain.LogEntry, error) {
	id := reminderID.String()

	return a.collect(ctx, func(l record.Log) bool { return l.ReminderID == id }), nil
}

func (a *actionLog) DeleteByID(ctx context.Context, id domain.LogEntryID) error {
	slog.DebugContext(ctx, "deleting log entry",
		"log_id", id.String(),
	)

	return a.logs.Mutate("delete log", func(items []record.Log) ([]record.Log, error) {
		for i := range items {
			if items[i].ID == id.String() {
				return append(items[:i], items[i+1:]...), nil
			}
		}

		return nil, domain.ErrLogEntryNotFound
	})
}

func (a *actionLog) DeleteFor(ctx context.Context, reminderID domain.ReminderID) (int, error) {
	id := reminderID.String()
	removed := 0

	err := a.logs.Mutate("delete logs for reminder", func(items []record.Log) ([]record.Log, error) {
		kept := items[:0]

		for _, rec := range items {
			if rec.ReminderID == id {
				removed++

				continue
			}

			kept = append(kept, rec)
		}

		return kept, nil
	})
	if err != nil {
		return 0, err
	}

	slog.DebugContext(ctx, "log entries deleted for reminder",
		"reminder_id", id,
		"count", removed,
	)

	return removed, nil
}

func (a *actionLog) collect(ctx context.Context, keep func(record.Log) bool) []*domain.LogEntry {
	items := a.logs.Items()
	entries := make([]*domain.LogEntry, 0, len(items))

	for _, rec := range items {
		if !keep(rec) {
			continue
		}

		e, err := rec.ToEntity()
		if err != nil {
			slog.WarnContext(ctx, "skipping undecodable log record",
				"log_id", rec.ID,
				"error", err,
			)

			continue
		}

		entries = append(entries, e)
	}

	sortNewestFirst(entries)

	return entries
}

// sortNewestFirst orders by actionTime descending; ties keep the most
// recently appended entry first.
func sortNewestFirst(entries []*domain.LogEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ActionTime().After(entries[j].ActionTime())
	})
}
