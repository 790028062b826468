package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

type NATSTransportConfig struct {
	URL              string
	QueueGroupPrefix string
}

// NewNATSTransport connects the publisher and subscriber a BrokerBackend
// talks through.
func NewNATSTransport(cfg NATSTransportConfig) (message.Publisher, message.Subscriber, error) {
	logger := watermill.NewSlogLogger(slog.Default())

	jsConfig := nats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: true,
		TrackMsgId:    false,
		AckAsync:      false,
		DurablePrefix: "medremind",
	}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.URL,
			NatsOptions: []nc.Option{nc.Timeout(10 * time.Second)},
			JetStream:   jsConfig,
			Marshaler:   &nats.NATSMarshaler{},
		},
		logger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              cfg.URL,
			QueueGroupPrefix: cfg.QueueGroupPrefix,
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
			NatsOptions:      []nc.Option{nc.Timeout(10 * time.Second)},
			Unmarshaler:      &nats.NATSMarshaler{},
			JetStream:        jsConfig,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	return publisher, subscriber, nil
}
