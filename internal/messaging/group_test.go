package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/linkmark/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConsumer struct {
	topic       string
	log         *[]string
	startErr    error
	shutdownErr error
	running     bool
}

func (f *fakeConsumer) Topic() string { return f.topic }

func (f *fakeConsumer) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}

	f.running = true
	*f.log = append(*f.log, "start "+f.topic)

	return nil
}

func (f *fakeConsumer) Shutdown() error {
	f.running = false
	*f.log = append(*f.log, "stop "+f.topic)

	return f.shutdownErr
}

func newGroup(consumers ...messaging.Runnable) (*messaging.ConsumerGroup, *mockSubscriber) {
	sub := newMockSubscriber()
	group := messaging.NewConsumerGroup(sub, zap.NewNop())

	for _, c := range consumers {
		group.Add(c)
	}

	return group, sub
}

func TestConsumerGroupStart(t *testing.T) {
	t.Run("starts consumers in order", func(t *testing.T) {
		var calls []string
		visits := &fakeConsumer{topic: "visits", log: &calls}
		scans := &fakeConsumer{topic: "scans", log: &calls}
		group, _ := newGroup(visits, scans)

		require.NoError(t, group.Start(context.Background()))

		assert.Equal(t, []string{"start visits", "start scans"}, calls)
		assert.True(t, visits.running)
		assert.True(t, scans.running)
	})

	t.Run("second start is rejected", func(t *testing.T) {
		var calls []string
		group, _ := newGroup(&fakeConsumer{topic: "visits", log: &calls})

		require.NoError(t, group.Start(context.Background()))

		assert.ErrorIs(t, group.Start(context.Background()), messaging.ErrGroupStarted)
		assert.Len(t, calls, 1)
	})

	t.Run("failure stops what already runs", func(t *testing.T) {
		var calls []string
		visits := &fakeConsumer{topic: "visits", log: &calls}
		scans := &fakeConsumer{topic: "scans", log: &calls}
		broken := &fakeConsumer{topic: "shares", log: &calls, startErr: errors.New("no stream")}
		group, _ := newGroup(visits, scans, broken)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "start shares")
		assert.Contains(t, err.Error(), "no stream")
		assert.Equal(t, []string{"start visits", "start scans", "stop scans", "stop visits"}, calls)
		assert.False(t, visits.running)
	})

	t.Run("rollback errors are reported", func(t *testing.T) {
		var calls []string
		stuck := &fakeConsumer{topic: "visits", log: &calls, shutdownErr: errors.New("stuck")}
		broken := &fakeConsumer{topic: "scans", log: &calls, startErr: errors.New("no stream")}
		group, _ := newGroup(stuck, broken)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no stream")
		assert.Contains(t, err.Error(), "stop visits: stuck")
	})
}

func TestConsumerGroupShutdown(t *testing.T) {
	t.Run("stops newest first and closes the subscriber", func(t *testing.T) {
		var calls []string
		group, sub := newGroup(
			&fakeConsumer{topic: "visits", log: &calls},
			&fakeConsumer{topic: "scans", log: &calls},
		)
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())

		assert.Equal(t, []string{"start visits", "start scans", "stop scans", "stop visits"}, calls)
		assert.True(t, sub.closed)
	})

	t.Run("joins every error", func(t *testing.T) {
		var calls []string
		group, _ := newGroup(
			&fakeConsumer{topic: "visits", log: &calls, shutdownErr: errors.New("first")},
			&fakeConsumer{topic: "scans", log: &calls, shutdownErr: errors.New("second")},
		)
		require.NoError(t, group.Start(context.Background()))

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "stop visits: first")
		assert.Contains(t, err.Error(), "stop scans: second")
		assert.Len(t, calls, 4)
	})

	t.Run("never started only closes the subscriber", func(t *testing.T) {
		var calls []string
		group, sub := newGroup(&fakeConsumer{topic: "visits", log: &calls})

		require.NoError(t, group.Shutdown())

		assert.Empty(t, calls)
		assert.True(t, sub.closed)
	})
}
