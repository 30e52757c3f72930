package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkmark/internal/analytics"
)

// EventPostgresStore is a PostgreSQL implementation of analytics.EventStore.
type EventPostgresStore struct {
	pool *pgxpool.Pool
}

// NewEventPostgresStore creates a new PostgreSQL-backed analytics event store.
func NewEventPostgresStore(pool *pgxpool.Pool) *EventPostgresStore {
	return &EventPostgresStore{pool: pool}
}

// Append ignores redelivered event ids.
func (p *EventPostgresStore) Append(ctx context.Context, event *analytics.VisitEvent) error {
	query := `
		INSERT INTO visit_events (id, asset_kind, asset_id, event_type, referer_domain,
			user_agent_hash, country_code, session_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		string(event.Asset.Kind),
		event.Asset.ID,
		string(event.EventType),
		event.RefererDomain,
		event.UserAgentHash,
		event.CountryCode,
		event.SessionHash,
		event.CreatedAt,
	)

	return err
}

func (p *EventPostgresStore) ListByAsset(
	ctx context.Context, asset analytics.AssetRef, since time.Time,
) ([]*analytics.VisitEvent, error) {
	query := `
		SELECT id, event_type, referer_domain, user_agent_hash, country_code, session_hash, created_at
		FROM visit_events
		WHERE asset_kind = $1 AND asset_id = $2 AND created_at >= $3
		ORDER BY created_at
	`

	rows, err := p.pool.Query(ctx, query, string(asset.Kind), asset.ID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*analytics.VisitEvent

	for rows.Next() {
		event := &analytics.VisitEvent{Asset: asset}

		var eventType string

		err = rows.Scan(
			&event.ID,
			&eventType,
			&event.RefererDomain,
			&event.UserAgentHash,
			&event.CountryCode,
			&event.SessionHash,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		event.EventType = analytics.ParseEventType(eventType)
		events = append(events, event)
	}

	return events, rows.Err()
}

var _ analytics.EventStore = (*EventPostgresStore)(nil)
