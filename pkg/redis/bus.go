package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// DefaultInvalidationChannel is used when no channel is configured.
const DefaultInvalidationChannel = "authkit:rbac:invalidate"

// InvalidationBus broadcasts role hierarchy cache busts over Redis pub/sub.
// Each message carries the publishing instance ID, and subscribers drop
// messages carrying their own. It satisfies rbac.InvalidationBus.
type InvalidationBus struct {
	client     redis.UniversalClient
	channel    string
	instanceID string
	log        *slog.Logger
}

type BusOption func(*InvalidationBus)

// WithChannel overrides the pub/sub channel.
func WithChannel(channel string) BusOption {
	return func(b *InvalidationBus) {
		if channel != "" {
			b.channel = channel
		}
	}
}

// WithInstanceID overrides the random instance ID.
func WithInstanceID(id string) BusOption {
	return func(b *InvalidationBus) {
		if id != "" {
			b.instanceID = id
		}
	}
}

func WithLogger(l *slog.Logger) BusOption {
	return func(b *InvalidationBus) {
		if l != nil {
			b.log = l
		}
	}
}

// FromConfig maps Config fields to bus options.
func FromConfig(cfg Config) []BusOption {
	return []BusOption{WithChannel(cfg.InvalidationChannel)}
}

func NewInvalidationBus(client redis.UniversalClient, opts ...BusOption) *InvalidationBus {
	b := &InvalidationBus{
		client:     client,
		channel:    DefaultInvalidationChannel,
		instanceID: uuid.NewString(),
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(logger.Component("redis.bus"))
	return b
}

// InstanceID identifies this bus in published messages.
func (b *InvalidationBus) InstanceID() string {
	return b.instanceID
}

func (b *InvalidationBus) Publish(ctx context.Context) error {
	if err := b.client.Publish(ctx, b.channel, b.instanceID).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Subscribe waits for the server to confirm the subscription, then calls
// onInvalidate for every message published by another instance. Calls are
// sequential. The stop function closes the subscription and waits for the
// delivery goroutine to exit.
func (b *InvalidationBus) Subscribe(ctx context.Context, onInvalidate func()) (func() error, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	messages := ps.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			if msg.Payload == b.instanceID {
				continue
			}
			onInvalidate()
		}
	}()

	b.log.Debug("subscribed to invalidations", slog.String("channel", b.channel))

	var (
		once    sync.Once
		stopErr error
	)
	stop := func() error {
		once.Do(func() {
			stopErr = ps.Close()
			<-done
		})
		return stopErr
	}
	return stop, nil
}
