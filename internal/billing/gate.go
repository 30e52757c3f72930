// Package billing keeps subscription profiles in sync with the payment
// provider and answers access questions from them.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/linkmark/internal/domain"
	"go.uber.org/zap"
)

// Profile is a user's subscription state. HasAccess is only written by
// billing events.
type Profile struct {
	UserID     string
	Email      string
	HasAccess  bool
	CustomerID string
	PriceID    string
	UpdatedAt  time.Time
}

// ProfileStore persists profiles. Lookups return domain.ErrNotFound when
// nothing matches; Save upserts by UserID.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByCustomerID(ctx context.Context, customerID string) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
}

// Access is the gate's answer. Profile is nil when none could be read.
type Access struct {
	HasAccess bool
	Profile   *Profile
}

// Gate answers access questions from the stored flag. It fails closed.
type Gate struct {
	profiles ProfileStore
	logger   *zap.Logger
}

func NewGate(profiles ProfileStore, logger *zap.Logger) *Gate {
	return &Gate{profiles: profiles, logger: logger}
}

// CheckAccess never returns an error: a missing profile or a failed lookup
// both mean no access.
func (g *Gate) CheckAccess(ctx context.Context, userID string) Access {
	if userID == "" {
		return Access{}
	}

	profile, err := g.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			g.logger.Warn("profile lookup failed, denying access",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}

		return Access{}
	}

	if profile == nil {
		return Access{}
	}

	return Access{HasAccess: profile.HasAccess, Profile: profile}
}

// HasAccess is CheckAccess reduced to the flag.
func (g *Gate) HasAccess(ctx context.Context, userID string) bool {
	return g.CheckAccess(ctx, userID).HasAccess
}
