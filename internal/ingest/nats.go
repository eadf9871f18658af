// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// SubscriberConfig configures the JetStream consumer.
type SubscriberConfig struct {
	URL              string
	StreamName       string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// DefaultSubscriberConfig returns production defaults for url.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		StreamName:       "OREWATCH_BLOCKS",
		DurableName:      "orewatch-engine",
		QueueGroup:       "orewatch",
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    1000,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

func connectionOptions(maxReconnects int, reconnectWait time.Duration, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("orewatch"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// NewSubscriberFactory returns a factory of JetStream subscribers bound
// to the configured stream. Binding is required for wildcard topics,
// since stream names cannot contain wildcards.
func NewSubscriberFactory(cfg SubscriberConfig, logger watermill.LoggerAdapter) SubscriberFactory {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return func() (message.Subscriber, error) {
		subOpts := []natsgo.SubOpt{
			natsgo.MaxDeliver(cfg.MaxDeliver),
			natsgo.MaxAckPending(cfg.MaxAckPending),
			natsgo.AckWait(cfg.AckWaitTimeout),
			natsgo.DeliverNew(),
		}
		autoProvision := true
		if cfg.StreamName != "" {
			subOpts = append(subOpts, natsgo.BindStream(cfg.StreamName))
			autoProvision = false
		}

		sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
			URL:              cfg.URL,
			QueueGroupPrefix: cfg.QueueGroup,
			SubscribersCount: cfg.SubscribersCount,
			AckWaitTimeout:   cfg.AckWaitTimeout,
			CloseTimeout:     cfg.CloseTimeout,
			NatsOptions:      connectionOptions(cfg.MaxReconnects, cfg.ReconnectWait, logger),
			Unmarshaler:      &wmNats.NATSMarshaler{},
			JetStream: wmNats.JetStreamConfig{
				AutoProvision:    autoProvision,
				AckAsync:         false,
				SubscribeOptions: subOpts,
				DurablePrefix:    cfg.DurableName,
			},
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create watermill subscriber: %w", err)
		}
		return sub, nil
	}
}

// NewNATSPublisher creates a JetStream publisher. Message ids are sent as
// Nats-Msg-Id so the stream's duplicate window drops replays.
func NewNATSPublisher(url string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: connectionOptions(-1, 2*time.Second, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return pub, nil
}
