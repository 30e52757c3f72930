// Package shortener owns short links and QR codes: code allocation,
// lifecycle and redirect resolution.
package shortener

import (
	"context"
	"time"

	"github.com/serroba/linkmark/internal/domain"
)

// Link is a short link. OwnerID is empty for anonymous links.
type Link struct {
	ID              string
	ShortCode       string
	OriginalURL     string
	Title           string
	MarkdownContent string
	OwnerID         string
	IsActive        bool
	ClickCount      int64
	CreatedAt       time.Time
	ExpiresAt       *time.Time
	LastClickedAt   *time.Time
}

// Expired reports whether the link expiry is at or before now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// QRCode is a tracked QR redirect. Its code lives in its own namespace.
type QRCode struct {
	ID              string
	Code            string
	TargetURL       string
	Title           string
	OwnerID         string
	IsActive        bool
	TrackingEnabled bool
	ScanCount       int64
	CreatedAt       time.Time
}

// OwnerStats aggregates an owner's assets of one kind.
type OwnerStats struct {
	Count int
	Hits  int64
}

// LinkRepository stores short links. Create returns domain.ErrConflict when
// the short code is taken, lookups return domain.ErrNotFound.
type LinkRepository interface {
	Create(ctx context.Context, link *Link) error
	GetByID(ctx context.Context, id string) (*Link, error)
	GetByCode(ctx context.Context, code string) (*Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, page domain.Page) ([]*Link, int, error)
	Update(ctx context.Context, link *Link) error
	Delete(ctx context.Context, link *Link) error
	IncrementClicks(ctx context.Context, id string, at time.Time) error
	StatsByOwner(ctx context.Context, ownerID string) (OwnerStats, error)
}

// QRRepository stores QR codes with the same conventions as LinkRepository.
type QRRepository interface {
	Create(ctx context.Context, qr *QRCode) error
	GetByID(ctx context.Context, id string) (*QRCode, error)
	GetByCode(ctx context.Context, code string) (*QRCode, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, page domain.Page) ([]*QRCode, int, error)
	Update(ctx context.Context, qr *QRCode) error
	Delete(ctx context.Context, qr *QRCode) error
	IncrementScans(ctx context.Context, id string) error
	StatsByOwner(ctx context.Context, ownerID string) (OwnerStats, error)
}

// AccessChecker answers whether a user currently has paid access.
type AccessChecker interface {
	HasAccess(ctx context.Context, userID string) bool
}
