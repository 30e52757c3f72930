package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownAsset is returned for an AssetRef with an unknown kind.
var ErrUnknownAsset = errors.New("unknown asset kind")

// EventStore appends and reads analytics rows. Rows are never changed.
type EventStore interface {
	Append(ctx context.Context, event *VisitEvent) error
	ListByAsset(ctx context.Context, asset AssetRef, since time.Time) ([]*VisitEvent, error)
}

// Counters increments the denormalized counter of an asset.
type Counters interface {
	Increment(ctx context.Context, asset AssetRef, at time.Time) error
}

type LinkCounter interface {
	IncrementClicks(ctx context.Context, id string, at time.Time) error
}

type QRCounter interface {
	IncrementScans(ctx context.Context, id string) error
}

type DocumentCounter interface {
	IncrementViews(ctx context.Context, documentID string) error
}

// AssetCounters dispatches an increment to the counter owned by the asset's kind.
type AssetCounters struct {
	Links     LinkCounter
	QRCodes   QRCounter
	Documents DocumentCounter
}

func (c AssetCounters) Increment(ctx context.Context, asset AssetRef, at time.Time) error {
	switch asset.Kind {
	case AssetShortURL:
		return c.Links.IncrementClicks(ctx, asset.ID, at)
	case AssetQRCode:
		return c.QRCodes.IncrementScans(ctx, asset.ID)
	case AssetMarkdown:
		return c.Documents.IncrementViews(ctx, asset.ID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAsset, asset.Kind)
	}
}

// Sink applies consumed events: one counter increment and one appended
// row. The writes are independent; a failure of either is logged and
// the message is still acknowledged.
type Sink struct {
	counters Counters
	events   EventStore
	logger   *zap.Logger
	observe  StageObserver
}

// NewSink creates a sink. A nil observer is allowed.
func NewSink(counters Counters, events EventStore, logger *zap.Logger, observe StageObserver) *Sink {
	if observe == nil {
		observe = func(string, AssetKind) {}
	}

	return &Sink{counters: counters, events: events, logger: logger, observe: observe}
}

// Handle is a messaging.Handler for TopicVisit.
func (s *Sink) Handle(ctx context.Context, event *VisitEvent) error {
	fields := []zap.Field{
		zap.String("asset", string(event.Asset.Kind)),
		zap.String("asset_id", event.Asset.ID),
		zap.String("event_id", event.ID),
	}

	failed := false

	if err := s.counters.Increment(ctx, event.Asset, event.CreatedAt); err != nil {
		failed = true

		s.logger.Error("failed to increment asset counter", append(fields, zap.Error(err))...)
	}

	if err := s.events.Append(ctx, event); err != nil {
		failed = true

		s.logger.Error("failed to append analytics event", append(fields, zap.Error(err))...)
	}

	if failed {
		s.observe(StageApplyFailed, event.Asset.Kind)
	} else {
		s.observe(StageApplied, event.Asset.Kind)
	}

	return nil
}
