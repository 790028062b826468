package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmhodges/clock"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/tracing"
)

const (
	CommandTriggerScheduled = "trigger.scheduled"
	CommandTriggerCancelled = "trigger.cancelled"
)

type BrokerConfig struct {
	TriggerTopic string
	EventTopic   string
	Horizon      time.Duration
	EventBuffer  int
}

// TriggerCommand is published to the trigger topic for the platform
// notification daemon.
type TriggerCommand struct {
	Type    string            `json:"type"`
	ID      string            `json:"id"`
	FiresAt time.Time         `json:"firesAt,omitempty"`
	Title   string            `json:"title,omitempty"`
	Body    string            `json:"body,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// EventMessage is what the daemon publishes back on the event topic.
type EventMessage struct {
	Type      string            `json:"type"`
	TriggerID string            `json:"triggerId"`
	FiresAt   time.Time         `json:"firesAt"`
	At        time.Time         `json:"at"`
	Action    string            `json:"action,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// BrokerBackend delegates triggers to a native notification daemon over a
// message broker. It mirrors the armed set locally so ListScheduled does not
// need a round trip.
type BrokerBackend struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	clk        clock.Clock
	cfg        BrokerConfig

	mu     sync.Mutex
	live   map[string]domain.Trigger
	events chan domain.NotificationEvent
}

func NewBrokerBackend(
	publisher message.Publisher,
	subscriber message.Subscriber,
	clk clock.Clock,
	cfg BrokerConfig,
) *BrokerBackend {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	return &BrokerBackend{
		publisher:  publisher,
		subscriber: subscriber,
		clk:        clk,
		cfg:        cfg,
		live:       make(map[string]domain.Trigger),
		events:     make(chan domain.NotificationEvent, cfg.EventBuffer),
	}
}

func (b *BrokerBackend) Schedule(ctx context.Context, trigger domain.Trigger) error {
	cmd := TriggerCommand{
		Type:    CommandTriggerScheduled,
		ID:      trigger.ID,
		FiresAt: trigger.FiresAt,
		Title:   trigger.Payload.Title,
		Body:    trigger.Payload.Body,
		Data:    trigger.Payload.Data,
	}

	if err := b.publish(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTriggerRejected, err)
	}

	b.mu.Lock()
	b.live[trigger.ID] = trigger
	b.mu.Unlock()

	return nil
}

// Cancel is always forwarded: after a restart the daemon may still hold
// triggers the local mirror has never seen.
func (b *BrokerBackend) Cancel(ctx context.Context, id string) error {
	b.mu.Lock()
	delete(b.live, id)
	b.mu.Unlock()

	return b.publish(ctx, TriggerCommand{Type: CommandTriggerCancelled, ID: id})
}

// ListScheduled reports mirrored triggers that have not fired yet.
func (b *BrokerBackend) ListScheduled(_ context.Context) ([]domain.Trigger, error) {
	now := b.clk.Now()

	b.mu.Lock()

	triggers := make([]domain.Trigger, 0, len(b.live))

	for id, t := range b.live {
		if !t.FiresAt.After(now) {
			delete(b.live, id)
			continue
		}

		triggers = append(triggers, t)
	}

	b.mu.Unlock()

	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].FiresAt.Before(triggers[j].FiresAt)
	})

	return triggers, nil
}

func (b *BrokerBackend) Events() <-chan domain.NotificationEvent {
	return b.events
}

func (b *BrokerBackend) Horizon() time.Duration {
	return b.cfg.Horizon
}

// Run consumes the event topic until ctx is done or the subscription closes.
func (b *BrokerBackend) Run(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, b.cfg.EventTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.cfg.EventTopic, err)
	}

	slog.Info("broker backend subscribed",
		"topic", b.cfg.EventTopic,
	)

	for msg := range messages {
		b.handleMessage(ctx, msg)
	}

	return nil
}

func (b *BrokerBackend) handleMessage(ctx context.Context, msg *message.Message) {
	ctx = tracing.ExtractFromMap(ctx, msg.Metadata)

	var em EventMessage
	if err := json.Unmarshal(msg.Payload, &em); err != nil {
		slog.WarnContext(ctx, "dropping malformed notification event",
			"message_id", msg.UUID,
			"error", err,
		)
		msg.Ack()

		return
	}

	ev := domain.NotificationEvent{
		Type:      domain.NotificationEventType(em.Type),
		TriggerID: em.TriggerID,
		FiresAt:   em.FiresAt,
		At:        em.At,
		Action:    domain.NotificationAction(em.Action),
		Data:      em.Data,
	}

	if ev.Type == domain.EventFired {
		b.mu.Lock()
		if t, ok := b.live[ev.TriggerID]; ok && !t.FiresAt.After(ev.FiresAt) {
			delete(b.live, ev.TriggerID)
		}
		b.mu.Unlock()
	}

	select {
	case b.events <- ev:
		msg.Ack()
	case <-ctx.Done():
		msg.Nack()
	}
}

func (b *BrokerBackend) publish(ctx context.Context, cmd TriggerCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", cmd.Type)
	msg.Metadata.Set("trigger_id", cmd.ID)
	tracing.InjectToMap(ctx, msg.Metadata)

	if err := b.publisher.Publish(b.cfg.TriggerTopic, msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish trigger command",
			"trigger_id", cmd.ID,
			"type", cmd.Type,
			"error", err,
		)

		return fmt.Errorf("failed to publish command: %w", err)
	}

	slog.DebugContext(ctx, "published trigger command",
		"trigger_id", cmd.ID,
		"type", cmd.Type,
		"message_id", msg.UUID,
	)

	return nil
}

func (b *BrokerBackend) Close() error {
	if err := b.subscriber.Close(); err != nil {
		return err
	}

	return b.publisher.Close()
}
