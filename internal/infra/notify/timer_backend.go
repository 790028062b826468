package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmhodges/clock"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

const defaultEventBuffer = 64

type TimerConfig struct {
	// Horizon bounds how far ahead a trigger is accepted. Later triggers are
	// dropped, as a platform timer would.
	Horizon      time.Duration
	PollInterval time.Duration
	EventBuffer  int
}

// TimerBackend keeps triggers in process and fires them from a polling loop.
type TimerBackend struct {
	mu     sync.Mutex
	clk    clock.Clock
	cfg    TimerConfig
	queue  *triggerQueue
	events chan domain.NotificationEvent
}

func NewTimerBackend(clk clock.Clock, cfg TimerConfig) *TimerBackend {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	return &TimerBackend{
		clk:    clk,
		cfg:    cfg,
		queue:  newTriggerQueue(),
		events: make(chan domain.NotificationEvent, cfg.EventBuffer),
	}
}

func (b *TimerBackend) Schedule(ctx context.Context, trigger domain.Trigger) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clk.Now()
	if b.cfg.Horizon > 0 && trigger.FiresAt.After(now.Add(b.cfg.Horizon)) {
		slog.DebugContext(ctx, "trigger beyond timer horizon, not armed",
			"trigger_id", trigger.ID,
			"fires_at", trigger.FiresAt,
			"horizon", b.cfg.Horizon,
		)

		b.queue.remove(trigger.ID)

		return nil
	}

	b.queue.upsert(trigger)

	slog.DebugContext(ctx, "timer trigger armed",
		"trigger_id", trigger.ID,
		"fires_at", trigger.FiresAt,
	)

	return nil
}

func (b *TimerBackend) Cancel(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.queue.remove(id) {
		slog.DebugContext(ctx, "timer trigger cancelled",
			"trigger_id", id,
		)
	}

	return nil
}

func (b *TimerBackend) ListScheduled(_ context.Context) ([]domain.Trigger, error) {
	b.mu.Lock()
	triggers := b.queue.snapshot()
	b.mu.Unlock()

	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].FiresAt.Before(triggers[j].FiresAt)
	})

	return triggers, nil
}

func (b *TimerBackend) Events() <-chan domain.NotificationEvent {
	return b.events
}

func (b *TimerBackend) Horizon() time.Duration {
	return b.cfg.Horizon
}

// Poll fires every trigger that is due and returns how many fired. A full
// event queue drops the event; the next reconciliation re-arms the slot.
func (b *TimerBackend) Poll() int {
	now := b.clk.Now()

	b.mu.Lock()

	var due []domain.Trigger

	for {
		next, ok := b.queue.peek()
		if !ok || next.FiresAt.After(now) {
			break
		}

		due = append(due, b.queue.popMin())
	}

	b.mu.Unlock()

	for _, t := range due {
		ev := domain.NotificationEvent{
			Type:      domain.EventFired,
			TriggerID: t.ID,
			FiresAt:   t.FiresAt,
			At:        now,
			Data:      t.Payload.Data,
		}

		select {
		case b.events <- ev:
			slog.Info("timer trigger fired",
				"trigger_id", t.ID,
				"fires_at", t.FiresAt,
			)
		default:
			slog.Warn("notification event queue full, dropping fired event",
				"trigger_id", t.ID,
			)
		}
	}

	return len(due)
}

// Run polls until ctx is done.
func (b *TimerBackend) Run(ctx context.Context) {
	slog.Info("timer backend started",
		"poll_interval", b.cfg.PollInterval,
		"horizon", b.cfg.Horizon,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("timer backend stopped")
			return
		case <-b.clk.After(b.cfg.PollInterval):
			b.Poll()
		}
	}
}
