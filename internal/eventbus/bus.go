// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/metrics"
)

var (
	// ErrDisabled is returned by Subscribe on the "none" backend.
	ErrDisabled = errors.New("eventbus: disabled")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("eventbus: closed")
)

// Bus publishes and subscribes to Playwise topics.
// It is safe for concurrent use.
type Bus struct {
	pub     message.Publisher
	sub     message.Subscriber
	backend  string
	embedded *embeddedServer
	logger   zerolog.Logger
	closed   atomic.Bool
}

// New opens the configured backend.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid eventbus config: %w", err)
	}
	logger = logger.With().Str("component", "eventbus").Str("backend", cfg.Backend).Logger()
	wmLogger := logging.NewWatermillLoggerWithLogger(logger)

	b := &Bus{backend: cfg.Backend, logger: logger}
	switch cfg.Backend {
	case BackendNone:
	case BackendGoChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.BufferSize}, wmLogger)
		b.pub, b.sub = ch, ch
	case BackendNATS:
		natsCfg := cfg.NATS
		if natsCfg.Embedded.Enabled {
			srv, err := startEmbedded(&natsCfg.Embedded)
			if err != nil {
				return nil, err
			}
			b.embedded = srv
			natsCfg.URL = srv.ClientURL()
			logger.Info().Str("url", natsCfg.URL).Msg("embedded nats server started")
		}
		pub, sub, err := openNATS(&natsCfg, wmLogger)
		if err != nil {
			if b.embedded != nil {
				b.embedded.Shutdown()
			}
			return nil, err
		}
		b.pub, b.sub = pub, sub
	}

	logger.Info().Msg("event bus ready")
	return b, nil
}

// NewGoChannel returns an in-process bus, mainly for tests and the CLI.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGoChannel(logger zerolog.Logger) *Bus {
	cfg := DefaultConfig()
	b, err := New(cfg, logger)
	if err != nil {
		panic(err) // defaults are valid
	}
	return b
}

func openNATS(cfg *NATSConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("playwise"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	jetStream := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jetStream,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jetStream,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return pub, sub, nil
}

// Backend returns the configured backend name.
func (b *Bus) Backend() string { return b.backend }

// Enabled reports whether messages go anywhere.
func (b *Bus) Enabled() bool { return b.pub != nil }

// Publish encodes payload as JSON and publishes it on topic. It is a no-op on
// the "none" backend.
func (b *Bus) Publish(ctx context.Context, topic, userID string, payload any) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if b.pub == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetaUserID, userID)
	msg.Metadata.Set(MetaSchemaVersion, strconv.Itoa(SchemaVersion))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetaCorrelationID, id)
	}
	msg.SetContext(ctx)

	if err := b.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.RecordEventPublished(topic)
	return nil
}

// Subscribe returns the message stream of topic. The channel closes when ctx
// is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if b.sub == nil {
		return nil, ErrDisabled
	}
	return b.sub.Subscribe(ctx, topic)
}

// Close shuts down the backend. It is idempotent.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if b.pub != nil {
		errs = append(errs, b.pub.Close())
	}
	// gochannel uses one value for both roles
	if b.sub != nil && any(b.sub) != any(b.pub) {
		errs = append(errs, b.sub.Close())
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
	return errors.Join(errs...)
}

// Decode unmarshals a message payload.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode message %s: %w", msg.UUID, err)
	}
	return v, nil
}

// Consume subscribes to topic and calls handle for every decodable message
// until ctx is done. Messages that fail to decode are acked and dropped;
// handler errors nack the message for redelivery.
func Consume[T any](ctx context.Context, b *Bus, topic string, handle func(context.Context, T) error) error {
	messages, err := b.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return drain(ctx, b, topic, messages, handle)
}

func drain[T any](ctx context.Context, b *Bus, topic string, messages <-chan *message.Message, handle func(context.Context, T) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			v, err := Decode[T](msg)
			if err != nil {
				b.logger.Warn().Err(err).Str("topic", topic).Msg("dropping undecodable message")
				metrics.RecordEventConsumed(topic, err)
				msg.Ack()
				continue
			}

			mctx := ctx
			if id := msg.Metadata.Get(MetaCorrelationID); id != "" {
				mctx = logging.ContextWithCorrelationID(ctx, id)
			}
			err = handle(mctx, v)
			metrics.RecordEventConsumed(topic, err)
			if err != nil {
				b.logger.Warn().Err(err).Str("topic", topic).Str("message_id", msg.UUID).Msg("handler failed, message nacked")
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}
