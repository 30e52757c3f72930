package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/markdown"
	"github.com/serroba/linkmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMemoryStore(t *testing.T) {
	newDoc := func(id, owner string) *documents.Document {
		return &documents.Document{
			ID:        id,
			OwnerID:   owner,
			Title:     "Doc " + id,
			Markdown:  "# hi",
			HTML:      "<h1>hi</h1>",
			Settings:  markdown.DefaultOptions(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
	}

	t.Run("create get count", func(t *testing.T) {
		s := store.NewDocumentMemoryStore(store.NewShareMemoryStore())
		require.NoError(t, s.Create(context.Background(), newDoc("d1", "u1")))
		require.NoError(t, s.Create(context.Background(), newDoc("d2", "u1")))

		got, err := s.GetByID(context.Background(), "d1")
		require.NoError(t, err)
		assert.Equal(t, "Doc d1", got.Title)
		assert.True(t, got.Settings.HighlightCode)

		count, err := s.CountByOwner(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		docs, total, err := s.ListByOwner(context.Background(), "u1", domain.NewPage(1, 1))
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, docs, 1)
	})

	t.Run("update missing document", func(t *testing.T) {
		s := store.NewDocumentMemoryStore(nil)

		assert.ErrorIs(t, s.Update(context.Background(), newDoc("nope", "u1")), domain.ErrNotFound)
	})

	t.Run("delete cascades to the share", func(t *testing.T) {
		shares := store.NewShareMemoryStore()
		s := store.NewDocumentMemoryStore(shares)
		doc := newDoc("d1", "u1")

		require.NoError(t, s.Create(context.Background(), doc))
		require.NoError(t, shares.Create(context.Background(), &documents.Share{
			Slug: "share01", DocumentID: "d1", IsPublic: true, CreatedAt: time.Now(),
		}))

		require.NoError(t, s.Delete(context.Background(), doc))

		_, err := shares.GetBySlug(context.Background(), "share01")
		require.ErrorIs(t, err, domain.ErrNotFound)

		ok, err := shares.SlugExists(context.Background(), "share01")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestShareMemoryStore(t *testing.T) {
	share := &documents.Share{Slug: "share01", DocumentID: "d1", IsPublic: true, CreatedAt: time.Now()}

	t.Run("slug and document are unique", func(t *testing.T) {
		s := store.NewShareMemoryStore()
		require.NoError(t, s.Create(context.Background(), share))

		sameSlug := &documents.Share{Slug: "share01", DocumentID: "d2"}
		assert.ErrorIs(t, s.Create(context.Background(), sameSlug), domain.ErrConflict)

		sameDoc := &documents.Share{Slug: "share02", DocumentID: "d1"}
		assert.ErrorIs(t, s.Create(context.Background(), sameDoc), domain.ErrConflict)
	})

	t.Run("views count per document", func(t *testing.T) {
		s := store.NewShareMemoryStore()
		require.NoError(t, s.Create(context.Background(), share))

		require.NoError(t, s.IncrementViews(context.Background(), "d1"))
		require.NoError(t, s.IncrementViews(context.Background(), "d1"))

		got, err := s.GetByDocumentID(context.Background(), "d1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ViewCount)

		assert.ErrorIs(t, s.IncrementViews(context.Background(), "d9"), domain.ErrNotFound)
	})

	t.Run("update visibility keeps views", func(t *testing.T) {
		s := store.NewShareMemoryStore()
		require.NoError(t, s.Create(context.Background(), share))
		require.NoError(t, s.IncrementViews(context.Background(), "d1"))

		private := *share
		private.IsPublic = false
		require.NoError(t, s.Update(context.Background(), &private))

		got, err := s.GetBySlug(context.Background(), "share01")
		require.NoError(t, err)
		assert.False(t, got.IsPublic)
		assert.Equal(t, int64(1), got.ViewCount)
	})
}
