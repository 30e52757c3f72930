package shortener_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/serroba/linkmark/internal/slug"
	"github.com/serroba/linkmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDB = errors.New("db down")

type accessFunc func(ctx context.Context, userID string) bool

func (f accessFunc) HasAccess(ctx context.Context, userID string) bool { return f(ctx, userID) }

// failingLinks fails list and lookup calls.
type failingLinks struct {
	*store.LinkMemoryStore
}

func (failingLinks) ListByOwner(context.Context, string, domain.Page) ([]*shortener.Link, int, error) {
	return nil, 0, errDB
}

func (failingLinks) GetByCode(context.Context, string) (*shortener.Link, error) {
	return nil, errDB
}

func newGenerator(t *testing.T) slug.Generator {
	t.Helper()

	gen, err := slug.NewGenerator(slug.DefaultLength)
	require.NoError(t, err)

	return gen
}

func newLinkService(t *testing.T, repo shortener.LinkRepository) *shortener.LinkService {
	t.Helper()

	alloc := shortener.NewAllocator(shortener.NamespaceLinks, repo.CodeExists, newGenerator(t))

	return shortener.NewLinkService(repo, alloc, zap.NewNop())
}

func TestLinkService_Create(t *testing.T) {
	t.Run("anonymous link gets a generated code", func(t *testing.T) {
		svc := newLinkService(t, store.NewLinkMemoryStore())

		link, err := svc.Create(context.Background(), shortener.CreateLinkInput{URL: "example.com/very/long/path"})

		require.NoError(t, err)
		assert.Len(t, link.ShortCode, slug.DefaultLength)
		assert.Equal(t, "https://example.com/very/long/path", link.OriginalURL)
		assert.True(t, link.IsActive)
		assert.Empty(t, link.OwnerID)
		assert.NotEmpty(t, link.ID)
		assert.False(t, link.CreatedAt.IsZero())
	})

	t.Run("custom slug is used and then taken", func(t *testing.T) {
		svc := newLinkService(t, store.NewLinkMemoryStore())

		link, err := svc.Create(context.Background(), shortener.CreateLinkInput{URL: "https://a.com", CustomSlug: "my-link"})
		require.NoError(t, err)
		assert.Equal(t, "my-link", link.ShortCode)

		_, err = svc.Create(context.Background(), shortener.CreateLinkInput{URL: "https://b.com", CustomSlug: "my-link"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("validation failures", func(t *testing.T) {
		svc := newLinkService(t, store.NewLinkMemoryStore())
		past := time.Now().Add(-time.Hour)
		longTitle := string(make([]rune, shortener.MaxTitleLength+1))

		tests := []struct {
			name string
			in   shortener.CreateLinkInput
		}{
			{"empty url", shortener.CreateLinkInput{URL: "  "}},
			{"bad scheme", shortener.CreateLinkInput{URL: "ftp://example.com"}},
			{"past expiry", shortener.CreateLinkInput{URL: "example.com", ExpiresAt: &past}},
			{"long title", shortener.CreateLinkInput{URL: "example.com", Title: longTitle}},
			{"reserved slug", shortener.CreateLinkInput{URL: "example.com", CustomSlug: "api"}},
			{"invalid slug", shortener.CreateLinkInput{URL: "example.com", CustomSlug: "a b"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(context.Background(), tt.in)

				assert.True(t, domain.IsValidation(err), "got %v", err)
			})
		}
	})
}

func TestLinkService_Ownership(t *testing.T) {
	svc := newLinkService(t, store.NewLinkMemoryStore())

	link, err := svc.Create(context.Background(), shortener.CreateLinkInput{URL: "example.com", OwnerID: "u1"})
	require.NoError(t, err)

	t.Run("anonymous callers are rejected", func(t *testing.T) {
		_, err := svc.Get(context.Background(), link.ID, "")

		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("other owners see not found", func(t *testing.T) {
		_, err := svc.Get(context.Background(), link.ID, "u2")
		require.ErrorIs(t, err, domain.ErrNotFound)

		err = svc.Delete(context.Background(), link.ID, "u2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("owner can update", func(t *testing.T) {
		inactive := false
		target := "HTTPS://Example.com:443/new"

		updated, err := svc.Update(context.Background(), link.ID, "u1",
			shortener.UpdateLinkInput{IsActive: &inactive, URL: &target})

		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "https://example.com/new", updated.OriginalURL)
		assert.Equal(t, link.ShortCode, updated.ShortCode)
	})

	t.Run("list and stats", func(t *testing.T) {
		links, total, err := svc.List(context.Background(), "u1", domain.NewPage(1, 10))
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, links, 1)

		stats, err := svc.Stats(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Count)
	})

	t.Run("owner can delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(context.Background(), link.ID, "u1"))

		_, err := svc.Get(context.Background(), link.ID, "u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLinkService_StorageFailure(t *testing.T) {
	svc := newLinkService(t, failingLinks{store.NewLinkMemoryStore()})

	_, _, err := svc.List(context.Background(), "u1", domain.NewPage(1, 10))

	assert.True(t, domain.IsUpstream(err))
	assert.ErrorIs(t, err, errDB)
}

func newQRService(t *testing.T, repo shortener.QRRepository, access accessFunc) *shortener.QRService {
	t.Helper()

	alloc := shortener.NewAllocator(shortener.NamespaceQR, repo.CodeExists, newGenerator(t))

	return shortener.NewQRService(repo, alloc, access, zap.NewNop())
}

func TestQRService_Create(t *testing.T) {
	paid := accessFunc(func(_ context.Context, userID string) bool { return userID == "paid" })

	t.Run("untracked codes need no account", func(t *testing.T) {
		svc := newQRService(t, store.NewQRMemoryStore(), paid)

		qr, err := svc.Create(context.Background(), shortener.CreateQRInput{URL: "example.com/menu"})

		require.NoError(t, err)
		assert.Len(t, qr.Code, slug.DefaultLength)
		assert.False(t, qr.TrackingEnabled)
	})

	t.Run("tracking requires sign in", func(t *testing.T) {
		svc := newQRService(t, store.NewQRMemoryStore(), paid)

		_, err := svc.Create(context.Background(), shortener.CreateQRInput{URL: "example.com", TrackingEnabled: true})

		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("tracking requires paid access", func(t *testing.T) {
		svc := newQRService(t, store.NewQRMemoryStore(), paid)

		_, err := svc.Create(context.Background(), shortener.CreateQRInput{
			URL: "example.com", TrackingEnabled: true, OwnerID: "free",
		})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("paid owners get tracked codes", func(t *testing.T) {
		svc := newQRService(t, store.NewQRMemoryStore(), paid)

		qr, err := svc.Create(context.Background(), shortener.CreateQRInput{
			URL: "example.com", TrackingEnabled: true, OwnerID: "paid", CustomCode: "menu-qr",
		})

		require.NoError(t, err)
		assert.True(t, qr.TrackingEnabled)
		assert.Equal(t, "menu-qr", qr.Code)
	})
}

func TestQRService_Update(t *testing.T) {
	svc := newQRService(t, store.NewQRMemoryStore(), func(context.Context, string) bool { return false })

	qr, err := svc.Create(context.Background(), shortener.CreateQRInput{URL: "example.com", OwnerID: "u1"})
	require.NoError(t, err)

	title := "  Menu  "
	inactive := false

	updated, err := svc.Update(context.Background(), qr.ID, "u1", shortener.UpdateQRInput{Title: &title, IsActive: &inactive})

	require.NoError(t, err)
	assert.Equal(t, "Menu", updated.Title)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(context.Background(), qr.ID, "u2", shortener.UpdateQRInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	links := store.NewLinkMemoryStore()
	qrs := store.NewQRMemoryStore()
	resolver := shortener.NewResolver(links, qrs)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	require.NoError(t, links.Create(ctx, &shortener.Link{ID: "l1", ShortCode: "live001", OriginalURL: "https://a.com", IsActive: true, ExpiresAt: &future}))
	require.NoError(t, links.Create(ctx, &shortener.Link{ID: "l2", ShortCode: "off0001", OriginalURL: "https://b.com", ExpiresAt: &past}))
	require.NoError(t, links.Create(ctx, &shortener.Link{ID: "l3", ShortCode: "old0001", OriginalURL: "https://c.com", IsActive: true, ExpiresAt: &past}))
	require.NoError(t, links.Create(ctx, &shortener.Link{ID: "l4", ShortCode: "doc0001", OriginalURL: "https://d.com", IsActive: true, MarkdownContent: "# Hi"}))

	tests := []struct {
		name   string
		code   string
		state  shortener.State
		target string
	}{
		{"active link", "live001", shortener.StateFound, "https://a.com"},
		{"deactivated wins over expired", "off0001", shortener.StateDeactivated, "https://b.com"},
		{"expired", "old0001", shortener.StateExpired, "https://c.com"},
		{"unknown", "missing", shortener.StateNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolver.ResolveLink(ctx, tt.code)

			require.NoError(t, err)
			assert.Equal(t, tt.state, res.State)
			assert.Equal(t, tt.target, res.Target)
		})
	}

	t.Run("markdown links carry content", func(t *testing.T) {
		res, err := resolver.ResolveLink(ctx, "doc0001")

		require.NoError(t, err)
		assert.Equal(t, shortener.StateFound, res.State)
		assert.Equal(t, "# Hi", res.Markdown)
		assert.True(t, res.Tracking)
	})

	t.Run("qr codes", func(t *testing.T) {
		require.NoError(t, qrs.Create(ctx, &shortener.QRCode{ID: "q1", Code: "qr00001", TargetURL: "https://q.com", IsActive: true}))
		require.NoError(t, qrs.Create(ctx, &shortener.QRCode{ID: "q2", Code: "qr00002", TargetURL: "https://q.com", TrackingEnabled: true}))

		res, err := resolver.ResolveQR(ctx, "qr00001")
		require.NoError(t, err)
		assert.Equal(t, shortener.StateFound, res.State)
		assert.False(t, res.Tracking)

		res, err = resolver.ResolveQR(ctx, "qr00002")
		require.NoError(t, err)
		assert.Equal(t, shortener.StateDeactivated, res.State)

		res, err = resolver.ResolveQR(ctx, "live001")
		require.NoError(t, err)
		assert.Equal(t, shortener.StateNotFound, res.State, "namespaces are disjoint")
	})

	t.Run("storage failures are upstream errors", func(t *testing.T) {
		broken := shortener.NewResolver(failingLinks{store.NewLinkMemoryStore()}, qrs)

		_, err := broken.ResolveLink(ctx, "live001")

		assert.True(t, domain.IsUpstream(err))
	})
}
