package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/serroba/linkmark/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMarkdown(t *testing.T) {
	f := newFixture(t)

	t.Run("renders sanitized html", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/markdown/convert", map[string]any{
			"markdown": "# Title\n\n<script>alert(1)</script>\n\n[site](https://example.com)",
		}, "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode[struct {
			HTML       string  `json:"html"`
			RenderTime float64 `json:"renderTime"`
		}](t, w)

		assert.Contains(t, body.HTML, "Title</h1>")
		assert.NotContains(t, body.HTML, "<script>")
		assert.NotContains(t, body.HTML, `target="_blank"`)
		assert.GreaterOrEqual(t, body.RenderTime, 0.0)
	})

	t.Run("options are applied", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/markdown/convert", map[string]any{
			"markdown": "[site](https://example.com)",
			"options":  map[string]any{"openLinksInNewTab": true},
		}, "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `target=\"_blank\"`)
	})

	t.Run("blank input", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/markdown/convert", map[string]any{"markdown": "  \n "}, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Markdown content is required", decode[handlers.APIError](t, w).Message)
	})

	t.Run("too long", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/markdown/convert",
			map[string]any{"markdown": strings.Repeat("a", 500_001)}, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDocuments(t *testing.T) {
	t.Run("saving requires authentication", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(t, http.MethodPost, "/api/markdown", map[string]any{"markdown": "# Notes"}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("create get update delete", func(t *testing.T) {
		f := newFixture(t)
		token := f.token(t, "user-1")

		w := f.do(t, http.MethodPost, "/api/markdown", map[string]any{"markdown": "# Notes"}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		doc := decode[handlers.DocumentBody](t, w)
		assert.Equal(t, "Untitled", doc.Title)
		assert.Contains(t, doc.HTML, "Notes</h1>")
		require.NotNil(t, doc.Settings.HighlightCode)
		assert.True(t, *doc.Settings.HighlightCode)

		w = f.do(t, http.MethodPatch, "/api/markdown/"+doc.ID,
			map[string]any{"title": "Meeting", "markdown": "## Agenda"}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decode[handlers.DocumentBody](t, w)
		assert.Equal(t, "Meeting", updated.Title)
		assert.Contains(t, updated.HTML, "Agenda</h2>")

		w = f.do(t, http.MethodGet, "/api/markdown/"+doc.ID, nil, f.token(t, "user-2"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "document not found", decode[handlers.APIError](t, w).Message)

		w = f.do(t, http.MethodDelete, "/api/markdown/"+doc.ID, nil, token)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, "/api/markdown/"+doc.ID, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestShareDocument(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "user-1")

	w := f.do(t, http.MethodPost, "/api/markdown",
		map[string]any{"title": "Handbook", "markdown": "# Welcome\n\nRead me."}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	doc := decode[handlers.DocumentBody](t, w)

	w = f.do(t, http.MethodPost, "/api/markdown/"+doc.ID+"/share", map[string]any{"isPublic": true}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	share := decode[handlers.ShareBody](t, w)
	assert.True(t, share.IsPublic)
	assert.Equal(t, "http://localhost:8888/p/"+share.Slug, share.URL)

	t.Run("public share renders", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/p/"+share.Slug, nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Handbook")
		assert.Contains(t, w.Body.String(), "Read me.")

		f.runner.Wait()

		got := decode[handlers.DocumentBody](t, f.do(t, http.MethodGet, "/api/markdown/"+doc.ID, nil, token))
		require.NotNil(t, got.Share)
		assert.Equal(t, share.Slug, got.Share.Slug)
		assert.Equal(t, int64(1), got.Share.ViewCount)
	})

	t.Run("sharing again keeps the slug", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/markdown/"+doc.ID+"/share", map[string]any{"isPublic": false}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		again := decode[handlers.ShareBody](t, w)
		assert.Equal(t, share.Slug, again.Slug)
		assert.False(t, again.IsPublic)
	})

	t.Run("private share looks missing", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/p/"+share.Slug, nil, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Equal(t, 1, f.redirects["share:not_found"])
	})

	t.Run("only the owner can share", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/markdown/"+doc.ID+"/share",
			map[string]any{"isPublic": true}, f.token(t, "user-2"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
