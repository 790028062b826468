package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/notify"
)

const (
	triggerTopic = "test.triggers"
	eventTopic   = "test.events"
)

func newBrokerBackend(t *testing.T) (*notify.BrokerBackend, *gochannel.GoChannel, clock.FakeClock) {
	t.Helper()

	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		Persistent:          true,
	}, watermill.NopLogger{})

	clk := clock.NewFake()
	clk.Set(baseTime)

	b := notify.NewBrokerBackend(ps, ps, clk, notify.BrokerConfig{
		TriggerTopic: triggerTopic,
		EventTopic:   eventTopic,
		Horizon:      24 * time.Hour,
	})

	t.Cleanup(func() { _ = ps.Close() })

	return b, ps, clk
}

func receiveCommand(t *testing.T, messages <-chan *message.Message) notify.TriggerCommand {
	t.Helper()

	select {
	case msg := <-messages:
		msg.Ack()

		var cmd notify.TriggerCommand
		require.NoError(t, json.Unmarshal(msg.Payload, &cmd))

		return cmd
	case <-time.After(time.Second):
		t.Fatal("no trigger command received")
	}

	return notify.TriggerCommand{}
}

func TestBrokerBackendPublishesCommands(t *testing.T) {
	ctx := context.Background()
	b, ps, _ := newBrokerBackend(t)

	commands, err := ps.Subscribe(ctx, triggerTopic)
	require.NoError(t, err)

	require.NoError(t, b.Schedule(ctx, trigger("a_0", baseTime.Add(time.Hour))))

	scheduled := receiveCommand(t, commands)
	assert.Equal(t, notify.CommandTriggerScheduled, scheduled.Type)
	assert.Equal(t, "a_0", scheduled.ID)
	assert.True(t, baseTime.Add(time.Hour).Equal(scheduled.FiresAt))
	assert.Equal(t, "t", scheduled.Title)

	live, err := b.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)

	require.NoError(t, b.Cancel(ctx, "a_0"))

	cancelled := receiveCommand(t, commands)
	assert.Equal(t, notify.CommandTriggerCancelled, cancelled.Type)
	assert.Equal(t, "a_0", cancelled.ID)

	live, err = b.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestBrokerBackendListScheduledPrunesPastTriggers(t *testing.T) {
	ctx := context.Background()
	b, _, clk := newBrokerBackend(t)

	require.NoError(t, b.Schedule(ctx, trigger("a_0", baseTime.Add(time.Hour))))
	require.NoError(t, b.Schedule(ctx, trigger("b_0", baseTime.Add(3*time.Hour))))

	clk.Add(2 * time.Hour)

	live, err := b.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "b_0", live[0].ID)
}

func TestBrokerBackendDeliversEvents(t *testing.T) {
	b, ps, _ := newBrokerBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, b.Schedule(ctx, trigger("a_0", baseTime.Add(time.Hour))))

	go func() { _ = b.Run(ctx) }()

	publish := func(v any) {
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, ps.Publish(eventTopic, message.NewMessage(watermill.NewUUID(), payload)))
	}

	publish("not an event object")
	publish(notify.EventMessage{
		Type:      string(domain.EventFired),
		TriggerID: "a_0",
		FiresAt:   baseTime.Add(time.Hour),
		At:        baseTime.Add(time.Hour),
	})
	publish(notify.EventMessage{
		Type:      string(domain.EventActionInvoked),
		TriggerID: "a_0",
		At:        baseTime.Add(time.Hour + time.Minute),
		Action:    string(domain.ActionTaken),
	})

	var got []domain.NotificationEvent

	for len(got) < 2 {
		select {
		case ev := <-b.Events():
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 events, got %d", len(got))
		}
	}

	assert.Equal(t, domain.EventFired, got[0].Type)
	assert.Equal(t, domain.EventActionInvoked, got[1].Type)
	assert.Equal(t, domain.ActionTaken, got[1].Action)

	live, err := b.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)
}
