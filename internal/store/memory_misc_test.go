package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMemoryStore(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	asset := analytics.ShortURL("l1")

	t.Run("filters by asset and since, oldest first", func(t *testing.T) {
		s := store.NewEventMemoryStore()

		for i, id := range []string{"e3", "e1", "e2"} {
			require.NoError(t, s.Append(context.Background(), &analytics.VisitEvent{
				ID: id, Asset: asset, EventType: analytics.EventVisit,
				CreatedAt: base.Add(time.Duration(2-i) * time.Hour),
			}))
		}

		require.NoError(t, s.Append(context.Background(), &analytics.VisitEvent{
			ID: "other", Asset: analytics.QRCode("l1"), CreatedAt: base,
		}))

		events, err := s.ListByAsset(context.Background(), asset, base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "e1", events[0].ID)
		assert.Equal(t, "e3", events[1].ID)
	})

	t.Run("redelivered events are stored once", func(t *testing.T) {
		s := store.NewEventMemoryStore()
		event := &analytics.VisitEvent{ID: "e1", Asset: asset, CreatedAt: base}

		require.NoError(t, s.Append(context.Background(), event))
		require.NoError(t, s.Append(context.Background(), event))

		events, err := s.ListByAsset(context.Background(), asset, base.Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}

func TestProfileMemoryStore(t *testing.T) {
	s := store.NewProfileMemoryStore()
	require.NoError(t, s.Save(context.Background(), &billing.Profile{
		UserID: "u1", Email: "Ada@Example.com", CustomerID: "cus_1",
	}))

	t.Run("lookups", func(t *testing.T) {
		p, err := s.GetByUserID(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", p.CustomerID)

		p, err = s.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", p.UserID)

		p, err = s.GetByCustomerID(context.Background(), "cus_1")
		require.NoError(t, err)
		assert.Equal(t, "u1", p.UserID)
	})

	t.Run("empty customer id never matches", func(t *testing.T) {
		_, err := s.GetByCustomerID(context.Background(), "")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save upserts by user", func(t *testing.T) {
		require.NoError(t, s.Save(context.Background(), &billing.Profile{UserID: "u1", HasAccess: true}))

		p, err := s.GetByUserID(context.Background(), "u1")
		require.NoError(t, err)
		assert.True(t, p.HasAccess)
		assert.Empty(t, p.CustomerID)
	})
}

func TestLedgerMemoryStore(t *testing.T) {
	s := store.NewLedgerMemoryStore()

	first, err := s.Claim(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.Claim(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, s.Release(context.Background(), "evt_1"))

	retry, err := s.Claim(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestRateLimitMemoryStore(t *testing.T) {
	t.Run("records and counts requests", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 3; want++ {
			count, err := s.Record(context.Background(), "key1", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Record(context.Background(), "key1", time.Minute)
		_, _ = s.Record(context.Background(), "key1", time.Minute)

		count, err := s.Record(context.Background(), "key2", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("expired entries fall out of the window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Record(context.Background(), "key1", time.Millisecond)
		time.Sleep(5 * time.Millisecond)

		count, err := s.Record(context.Background(), "key1", time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("sweep drops idle keys", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Record(context.Background(), "key1", time.Minute)
		time.Sleep(2 * time.Millisecond)

		assert.Equal(t, 1, s.Sweep(time.Millisecond))
		assert.Equal(t, 0, s.Sweep(time.Millisecond))
	})
}
