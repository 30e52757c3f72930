package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultHandleTimeout bounds the handling of one message.
const DefaultHandleTimeout = 30 * time.Second

// Handler processes a single event. Handlers are synchronous and easy to test.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer decodes messages of one topic and hands them to a typed handler.
//
// A payload that does not decode is acknowledged and dropped, since
// redelivering it can never succeed. A handler error or panic nacks the
// message so the transport redelivers it.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	timeout    time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
}

type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	timeout time.Duration
}

// WithHandleTimeout replaces DefaultHandleTimeout.
func WithHandleTimeout(d time.Duration) ConsumerOption {
	return func(c *consumerConfig) { c.timeout = d }
}

// NewConsumer creates a consumer of topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	cfg := consumerConfig{timeout: DefaultHandleTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		timeout:    cfg.timeout,
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and consumes in the background until ctx ends or
// Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	go func() {
		defer close(c.done)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				c.process(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	reqID := msg.Metadata.Get(MetadataRequestID)
	log := c.logger.With(zap.String("message_id", msg.UUID), zap.String("request_id", reqID))

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Error("dropping undecodable message", zap.Error(err))
		msg.Ack()

		return
	}

	if reqID != "" {
		ctx = context.WithValue(ctx, middleware.RequestIDKey, reqID)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.handle(ctx, &event); err != nil {
		log.Error("message handling failed, requesting redelivery", zap.Error(err))
		msg.Nack()

		return
	}

	msg.Ack()
	log.Debug("message handled")
}

func (c *Consumer[T]) handle(ctx context.Context, event *T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return c.handler(ctx, event)
}

// Shutdown stops consuming and waits for the message in flight.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
