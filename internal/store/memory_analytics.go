package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/linkmark/internal/analytics"
)

// EventMemoryStore is an in-memory implementation of analytics.EventStore.
type EventMemoryStore struct {
	mu      sync.RWMutex
	byAsset map[analytics.AssetRef][]*analytics.VisitEvent
	seen    map[string]struct{}
}

// NewEventMemoryStore creates a new in-memory analytics event store.
func NewEventMemoryStore() *EventMemoryStore {
	return &EventMemoryStore{
		byAsset: make(map[analytics.AssetRef][]*analytics.VisitEvent),
		seen:    make(map[string]struct{}),
	}
}

// Append stores the event once. A redelivered event id is ignored.
func (m *EventMemoryStore) Append(_ context.Context, event *analytics.VisitEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.seen[event.ID]; dup {
		return nil
	}

	stored := *event
	m.seen[event.ID] = struct{}{}
	m.byAsset[event.Asset] = append(m.byAsset[event.Asset], &stored)

	return nil
}

// ListByAsset returns the asset's events at or after since, oldest first.
func (m *EventMemoryStore) ListByAsset(
	_ context.Context, asset analytics.AssetRef, since time.Time,
) ([]*analytics.VisitEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*analytics.VisitEvent

	for _, event := range m.byAsset[asset] {
		if !event.CreatedAt.Before(since) {
			c := *event
			out = append(out, &c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

var _ analytics.EventStore = (*EventMemoryStore)(nil)
