package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/KasumiMercury/primind-med-remind/internal/observability/tracing"
)

//go:generate mockgen -source=publisher.go -destination=publisher_mock.go -package=pubsub

const (
	TopicReminderDeleted  = "medremind.reminder.deleted"
	TopicOccurrenceLogged = "medremind.occurrence.logged"
)

type ReminderDeletedEvent struct {
	ReminderID     string    `json:"reminderId"`
	MedicationName string    `json:"medicationName"`
	DeletedAt      time.Time `json:"deletedAt"`
}

type OccurrenceLoggedEvent struct {
	LogID          string    `json:"logId"`
	ReminderID     string    `json:"reminderId"`
	MedicationName string    `json:"medicationName"`
	Status         string    `json:"status"`
	ScheduledTime  time.Time `json:"scheduledTime"`
	ActionTime     time.Time `json:"actionTime"`
}

type Publisher interface {
	PublishReminderDeleted(ctx context.Context, event ReminderDeletedEvent) error
	PublishOccurrenceLogged(ctx context.Context, event OccurrenceLoggedEvent) error
	io.Closer
}

// EventPublisher publishes domain events as JSON over any watermill
// publisher.
type EventPublisher struct {
	publisher message.Publisher
}

func NewEventPublisher(publisher message.Publisher) *EventPublisher {
	return &EventPublisher{publisher: publisher}
}

func (p *EventPublisher) PublishReminderDeleted(ctx context.Context, event ReminderDeletedEvent) error {
	return p.publish(ctx, TopicReminderDeleted, "reminder.deleted", event.ReminderID, event)
}

func (p *EventPublisher) PublishOccurrenceLogged(ctx context.Context, event OccurrenceLoggedEvent) error {
	return p.publish(ctx, TopicOccurrenceLogged, "occurrence.logged", event.ReminderID, event)
}

func (p *EventPublisher) publish(ctx context.Context, topic, eventType, reminderID string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", eventType)
	msg.Metadata.Set("reminder_id", reminderID)
	tracing.InjectToMap(ctx, msg.Metadata)

	if err := p.publisher.Publish(topic, msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish event",
			slog.String("event_type", eventType),
			slog.String("reminder_id", reminderID),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.DebugContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("reminder_id", reminderID),
		slog.String("message_id", msg.UUID),
	)

	return nil
}

func (p *EventPublisher) Close() error {
	return p.publisher.Close()
}
