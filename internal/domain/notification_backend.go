package domain

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=notification_backend.go -destination=notification_backend_mock.go -package=domain

var (
	ErrPermissionDenied = errors.New("notification permission not granted")
	ErrTriggerRejected  = errors.New("notification backend rejected trigger")
)

// Payload is what the platform displays when a trigger fires.
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

// Trigger is one live, id-addressed notification in the backend.
type Trigger struct {
	ID      string
	FiresAt time.Time
	Payload Payload
}

type NotificationEventType string

const (
	EventFired         NotificationEventType = "fired"
	EventPressed       NotificationEventType = "pressed"
	EventActionInvoked NotificationEventType = "action_invoked"
)

type NotificationAction string

const (
	ActionTaken  NotificationAction = "taken"
	ActionSkip   NotificationAction = "skip"
	ActionSnooze NotificationAction = "snooze"
)

// NotificationEvent is emitted by a backend when a trigger fires or the user
// interacts with a displayed notification.
type NotificationEvent struct {
	Type      NotificationEventType
	TriggerID string
	// FiresAt is the instant the trigger was armed for.
	FiresAt time.Time
	At      time.Time
	Action  NotificationAction
	Data    map[string]string
}

// NotificationBackend is the platform timer service. Schedule on an id that
// is already live overwrites it. Cancel of an unknown id is a no-op.
// A Horizon of zero means triggers may be armed arbitrarily far ahead.
type NotificationBackend interface {
	Schedule(ctx context.Context, trigger Trigger) error
	Cancel(ctx context.Context, id string) error
	ListScheduled(ctx context.Context) ([]Trigger, error)
	Events() <-chan NotificationEvent
	Horizon() time.Duration
}
