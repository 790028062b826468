package app

import (
	"time"

	"github.com/jmhodges/clock"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

// SchedulerContext carries the collaborators shared by the scheduler, the
// reconciliation loop and the reminder use case.
type SchedulerContext struct {
	Reminders domain.ReminderRepository
	Logs      domain.ActionLogRepository
	Backend   domain.NotificationBackend
	Clock     clock.Clock
	// Location is the wall-clock zone occurrences are computed in.
	Location *time.Location
}

func (sc SchedulerContext) now() time.Time {
	loc := sc.Location
	if loc == nil {
		loc = time.Local
	}

	return sc.Clock.Now().In(loc)
}
