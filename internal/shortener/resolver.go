package shortener

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/linkmark/internal/domain"
)

// State is the terminal outcome of resolving a code.
type State string

const (
	StateFound       State = "found"
	StateNotFound    State = "not_found"
	StateDeactivated State = "deactivated"
	StateExpired     State = "expired"
)

// Resolution is what a redirect surface needs to answer a visit.
// Markdown is set when the link carries content to render instead of
// redirecting.
type Resolution struct {
	State    State
	AssetID  string
	Target   string
	Title    string
	Markdown string
	Tracking bool
}

// Resolver maps codes to resolutions.
type Resolver struct {
	links LinkRepository
	qrs   QRRepository
	now   func() time.Time
}

// NewResolver creates a resolver over both code namespaces.
func NewResolver(links LinkRepository, qrs QRRepository) *Resolver {
	return &Resolver{links: links, qrs: qrs, now: time.Now}
}

// ResolveLink resolves a short link code. Only storage failures are errors.
func (r *Resolver) ResolveLink(ctx context.Context, code string) (Resolution, error) {
	link, err := r.links.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Resolution{State: StateNotFound}, nil
		}

		return Resolution{}, domain.Upstream("resolve link", err)
	}

	res := Resolution{
		AssetID:  link.ID,
		Target:   link.OriginalURL,
		Title:    link.Title,
		Markdown: link.MarkdownContent,
		Tracking: true,
	}

	switch {
	case !link.IsActive:
		res.State = StateDeactivated
	case link.Expired(r.now()):
		res.State = StateExpired
	default:
		res.State = StateFound
	}

	return res, nil
}

// ResolveQR resolves a QR code.
func (r *Resolver) ResolveQR(ctx context.Context, code string) (Resolution, error) {
	qr, err := r.qrs.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Resolution{State: StateNotFound}, nil
		}

		return Resolution{}, domain.Upstream("resolve qr code", err)
	}

	res := Resolution{
		State:    StateFound,
		AssetID:  qr.ID,
		Target:   qr.TargetURL,
		Title:    qr.Title,
		Tracking: qr.TrackingEnabled,
	}

	if !qr.IsActive {
		res.State = StateDeactivated
	}

	return res, nil
}
