package app

import (
	"sync"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

// reminderLocks serializes backend work per reminder so that one reminder's
// slots are never armed and cancelled concurrently. An entry lives only while
// some caller holds or waits for it.
type reminderLocks struct {
	mu    sync.Mutex
	locks map[domain.ReminderID]*reminderLock
}

type reminderLock struct {
	sync.Mutex
	refs int
}

func newReminderLocks() *reminderLocks {
	return &reminderLocks{locks: make(map[domain.ReminderID]*reminderLock)}
}

func (l *reminderLocks) lock(id domain.ReminderID) func() {
	l.mu.Lock()

	m, ok := l.locks[id]
	if !ok {
		m = &reminderLock{}
		l.locks[id] = m
	}

	m.refs++

	l.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
	}
}

func (l *reminderLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
