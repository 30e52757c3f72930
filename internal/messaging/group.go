package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

var ErrGroupStarted = errors.New("consumer group already started")

// Runnable is a consumer with a start and stop lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

type topicConsumer interface {
	Topic() string
}

// ConsumerGroup runs the consumers that share one subscriber. The
// subscriber is closed after every consumer has stopped.
type ConsumerGroup struct {
	subscriber message.Subscriber
	logger     *zap.Logger

	mu        sync.Mutex
	consumers []Runnable
	running   []Runnable
	started   bool
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer. Consumers added after Start are not started.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.consumers = append(g.consumers, consumer)
}

// Start starts every consumer in order. When one fails, those already
// running are stopped again and the group can be started anew.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return ErrGroupStarted
	}

	for _, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			rollback := stopAll(g.running)
			g.running = nil

			return errors.Join(fmt.Errorf("start %s: %w", nameOf(consumer), err), rollback)
		}

		g.running = append(g.running, consumer)
	}

	g.started = true
	g.logger.Info("consumer group started", zap.Strings("topics", g.topics()))

	return nil
}

// Shutdown stops the running consumers, newest first, then closes the
// subscriber. Every error is reported.
func (g *ConsumerGroup) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("stopping consumer group", zap.Int("running", len(g.running)))

	err := stopAll(g.running)
	g.running = nil
	g.started = false

	if closeErr := g.subscriber.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close subscriber: %w", closeErr))
	}

	return err
}

func (g *ConsumerGroup) topics() []string {
	names := make([]string, 0, len(g.consumers))
	for _, c := range g.consumers {
		names = append(names, nameOf(c))
	}

	return names
}

func stopAll(consumers []Runnable) error {
	var errs []error

	for i := len(consumers) - 1; i >= 0; i-- {
		if err := consumers[i].Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", nameOf(consumers[i]), err))
		}
	}

	return errors.Join(errs...)
}

func nameOf(consumer Runnable) string {
	if tc, ok := consumer.(topicConsumer); ok {
		return tc.Topic()
	}

	return fmt.Sprintf("%T", consumer)
}
