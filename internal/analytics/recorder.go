package analytics

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/serroba/linkmark/internal/messaging"
	"github.com/serroba/linkmark/internal/task"
	"go.uber.org/zap"
)

// StageObserver is told about every event that leaves or enters the bus.
type StageObserver func(stage string, kind AssetKind)

// Stage labels.
const (
	StagePublished     = "published"
	StagePublishFailed = "publish_failed"
	StageApplied       = "applied"
	StageApplyFailed   = "apply_failed"
)

// Recorder builds visit events and publishes them on a detached task.
type Recorder struct {
	publish messaging.Publish[VisitEvent]
	runner  *task.Runner
	logger  *zap.Logger
	observe StageObserver
	now     func() time.Time
}

// NewRecorder creates a recorder. A nil observer is allowed.
func NewRecorder(
	publish messaging.Publish[VisitEvent],
	runner *task.Runner,
	logger *zap.Logger,
	observe StageObserver,
) *Recorder {
	if observe == nil {
		observe = func(string, AssetKind) {}
	}

	return &Recorder{
		publish: publish,
		runner:  runner,
		logger:  logger,
		observe: observe,
		now:     time.Now,
	}
}

// NewEvent fingerprints meta into an event for asset.
func NewEvent(asset AssetRef, eventType EventType, meta RequestMeta, at time.Time) *VisitEvent {
	return &VisitEvent{
		ID:            uuid.NewString(),
		Asset:         asset,
		EventType:     eventType,
		RefererDomain: RefererDomain(meta.Referer),
		UserAgentHash: UserAgentHash(meta.UserAgent),
		CountryCode:   CountryCode(meta.Country),
		SessionHash:   SessionHash(meta.IP, meta.UserAgent, at),
		CreatedAt:     at.UTC(),
	}
}

// Track records an event without blocking the caller. Publish failures
// are logged and the event is lost.
func (r *Recorder) Track(ctx context.Context, asset AssetRef, eventType EventType, meta RequestMeta) {
	event := NewEvent(asset, eventType, meta, r.now())
	reqID := middleware.GetReqID(ctx)

	r.runner.Go("analytics.track", func(taskCtx context.Context) error {
		if reqID != "" {
			taskCtx = context.WithValue(taskCtx, middleware.RequestIDKey, reqID)
		}

		if err := r.publish(taskCtx, event); err != nil {
			r.observe(StagePublishFailed, asset.Kind)
			r.logger.Error("failed to publish analytics event",
				zap.String("asset", string(asset.Kind)),
				zap.String("asset_id", asset.ID),
				zap.String("event_type", string(eventType)),
				zap.Error(err),
			)

			return nil
		}

		r.observe(StagePublished, asset.Kind)

		return nil
	})
}
