package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/domain"
)

const profileColumns = `user_id, email, has_access, customer_id, price_id, updated_at`

// ProfilePostgresStore is a PostgreSQL implementation of billing.ProfileStore.
type ProfilePostgresStore struct {
	pool *pgxpool.Pool
}

// NewProfilePostgresStore creates a new PostgreSQL-backed profile store.
func NewProfilePostgresStore(pool *pgxpool.Pool) *ProfilePostgresStore {
	return &ProfilePostgresStore{pool: pool}
}

func (p *ProfilePostgresStore) GetByUserID(ctx context.Context, userID string) (*billing.Profile, error) {
	return p.getOne(ctx, `user_id = $1`, userID)
}

func (p *ProfilePostgresStore) GetByEmail(ctx context.Context, email string) (*billing.Profile, error) {
	return p.getOne(ctx, `lower(email) = lower($1)`, email)
}

func (p *ProfilePostgresStore) GetByCustomerID(ctx context.Context, customerID string) (*billing.Profile, error) {
	if customerID == "" {
		return nil, domain.ErrNotFound
	}

	return p.getOne(ctx, `customer_id = $1`, customerID)
}

// Save upserts by user id.
func (p *ProfilePostgresStore) Save(ctx context.Context, profile *billing.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			has_access = EXCLUDED.has_access,
			customer_id = EXCLUDED.customer_id,
			price_id = EXCLUDED.price_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err := p.pool.Exec(ctx, query,
		profile.UserID,
		profile.Email,
		profile.HasAccess,
		profile.CustomerID,
		profile.PriceID,
		profile.UpdatedAt,
	)

	return mapError(err)
}

func (p *ProfilePostgresStore) getOne(ctx context.Context, where string, arg string) (*billing.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + where + ` ORDER BY updated_at DESC LIMIT 1`

	var profile billing.Profile

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&profile.UserID,
		&profile.Email,
		&profile.HasAccess,
		&profile.CustomerID,
		&profile.PriceID,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return &profile, nil
}

var _ billing.ProfileStore = (*ProfilePostgresStore)(nil)
