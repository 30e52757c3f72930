package markdown_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var eventHandlerAttr = regexp.MustCompile(`(?i)<[^>]*\son[a-z]+\s*=`)

func newConverter() *markdown.Converter {
	return markdown.NewConverter(zap.NewNop(), nil)
}

func convert(t *testing.T, text string, opts markdown.Options) string {
	t.Helper()

	res, err := newConverter().Convert(context.Background(), text, opts)
	require.NoError(t, err)

	return res.HTML
}

func TestConvert_Basics(t *testing.T) {
	t.Run("heading and bold", func(t *testing.T) {
		out := convert(t, "# Hello\n\n**bold**", markdown.DefaultOptions())

		assert.Contains(t, out, "<h1>Hello</h1>")
		assert.Contains(t, out, "<strong>bold</strong>")
	})

	t.Run("same input yields identical html", func(t *testing.T) {
		c := newConverter()
		input := "# Title\n\nSome *text* with a [link](https://a.com).\n\n```go\nfunc main() {}\n```\n"

		first, err := c.Convert(context.Background(), input, markdown.DefaultOptions())
		require.NoError(t, err)

		second, err := c.Convert(context.Background(), input, markdown.DefaultOptions())
		require.NoError(t, err)

		assert.Equal(t, first.HTML, second.HTML)
	})

	t.Run("single newline becomes a line break", func(t *testing.T) {
		out := convert(t, "first\nsecond", markdown.DefaultOptions())

		assert.Contains(t, out, "<br")
	})

	t.Run("github flavored features", func(t *testing.T) {
		input := "| a | b |\n|:--|--:|\n| 1 | 2 |\n\n~~gone~~\n\n- [x] done\n- [ ] todo\n\nsee https://example.com"
		out := convert(t, input, markdown.DefaultOptions())

		assert.Contains(t, out, "<table>")
		assert.Contains(t, out, `<th align="left">a</th>`)
		assert.Contains(t, out, "<del>gone</del>")
		assert.Contains(t, out, `type="checkbox"`)
		assert.Contains(t, out, `checked=""`)
		assert.Contains(t, out, `<a href="https://example.com"`)
	})

	t.Run("reports render time", func(t *testing.T) {
		res, err := newConverter().Convert(context.Background(), "hello", markdown.DefaultOptions())

		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.RenderTime, time.Duration(0))
		assert.GreaterOrEqual(t, res.RenderTimeMillis(), 0.0)
	})

	t.Run("observer receives durations", func(t *testing.T) {
		calls := 0
		c := markdown.NewConverter(zap.NewNop(), func(time.Duration) { calls++ })

		_, err := c.Convert(context.Background(), "hello", markdown.DefaultOptions())

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestConvert_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", markdown.ErrEmptyInput},
		{"whitespace only", "   \n\t", markdown.ErrEmptyInput},
		{"too long", strings.Repeat("a", markdown.MaxInputLength+1), markdown.ErrTooLong},
		{"invalid utf-8", "abc\xff", markdown.ErrNotText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newConverter().Convert(context.Background(), tt.input, markdown.DefaultOptions())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, domain.IsValidation(err))
		})
	}

	t.Run("limit counts characters not bytes", func(t *testing.T) {
		input := strings.Repeat("é", markdown.MaxInputLength)

		assert.NoError(t, markdown.Validate(input))
	})

	t.Run("messages are distinct", func(t *testing.T) {
		assert.NotEqual(t, markdown.ErrEmptyInput.Error(), markdown.ErrTooLong.Error())
		assert.NotEqual(t, markdown.ErrTooLong.Error(), markdown.ErrNotText.Error())
	})
}

func TestConvert_Sanitization(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>",
		"hello <img src=x onerror=alert(1)> world",
		"<div onclick=\"steal()\">click</div>",
		"<a href=\"javascript:alert(1)\" onmouseover=\"x()\">bad</a>",
		"<svg onload=alert(1)></svg>",
		"<style>body{display:none}</style>",
		"<p style=\"color:red\" onfocus=\"x\">styled</p>",
		"<iframe src=\"https://evil.example\" onload=\"x()\"></iframe>",
		"[x](javascript:alert(1))",
	}

	for _, allowHTML := range []bool{false, true} {
		for _, newTab := range []bool{false, true} {
			opts := markdown.DefaultOptions()
			opts.AllowHTML = allowHTML
			opts.OpenLinksInNewTab = newTab

			for _, input := range inputs {
				out := convert(t, input, opts)

				assert.NotContains(t, strings.ToLower(out), "<script", "input %q allowHTML=%v", input, allowHTML)
				assert.NotContains(t, strings.ToLower(out), "<style", "input %q", input)
				assert.NotContains(t, out, "style=", "input %q", input)
				assert.NotContains(t, out, "javascript:", "input %q", input)
				assert.False(t, eventHandlerAttr.MatchString(out), "event handler survived in %q", out)
			}
		}
	}
}

func TestConvert_AllowHTML(t *testing.T) {
	input := "<video controls src=\"https://cdn.example.com/clip.mp4\"></video>"

	t.Run("embeds are dropped by default", func(t *testing.T) {
		out := convert(t, input, markdown.DefaultOptions())

		assert.NotContains(t, out, "<video")
	})

	t.Run("embeds are kept when allowed", func(t *testing.T) {
		opts := markdown.DefaultOptions()
		opts.AllowHTML = true

		out := convert(t, input, opts)

		assert.Contains(t, out, "<video")
		assert.Contains(t, out, "controls")
	})
}

func TestConvert_LinkRewrite(t *testing.T) {
	t.Run("new tab adds target and rel", func(t *testing.T) {
		opts := markdown.DefaultOptions()
		opts.OpenLinksInNewTab = true

		out := convert(t, "[x](https://a.com)", opts)

		assert.Contains(t, out, `target="_blank"`)
		assert.Contains(t, out, `rel="nofollow noopener noreferrer"`)
		assert.Contains(t, out, `href="https://a.com"`)
	})

	t.Run("custom rel", func(t *testing.T) {
		opts := markdown.DefaultOptions()
		opts.OpenLinksInNewTab = true
		opts.LinkRel = "noopener"

		out := convert(t, "[x](https://a.com)", opts)

		assert.Contains(t, out, `rel="noopener"`)
		assert.NotContains(t, out, "nofollow")
	})

	t.Run("unusable rel falls back to default", func(t *testing.T) {
		opts := markdown.DefaultOptions()
		opts.OpenLinksInNewTab = true
		opts.LinkRel = `"><script>`

		out := convert(t, "[x](https://a.com)", opts)

		assert.Contains(t, out, `rel="nofollow noopener noreferrer"`)
	})

	t.Run("default leaves anchors alone", func(t *testing.T) {
		out := convert(t, "[x](https://a.com)", markdown.DefaultOptions())

		assert.NotContains(t, out, "target=")
		assert.NotContains(t, out, "rel=")
	})

	t.Run("relative and mailto links keep their href", func(t *testing.T) {
		out := convert(t, "[doc](/p/abc) and [mail](mailto:a@b.co)", markdown.DefaultOptions())

		assert.Contains(t, out, `href="/p/abc"`)
		assert.Contains(t, out, `href="mailto:a@b.co"`)
		assert.NotContains(t, out, "rel=")
	})

	t.Run("script urls are dropped", func(t *testing.T) {
		out := convert(t, "[x](javascript:alert(1))", markdown.DefaultOptions())

		assert.NotContains(t, out, `href="javascript:`)
	})

	t.Run("autolinks are rewritten too", func(t *testing.T) {
		opts := markdown.DefaultOptions()
		opts.OpenLinksInNewTab = true

		out := convert(t, "visit https://example.com today", opts)

		assert.Contains(t, out, `target="_blank"`)
	})
}

func TestConvert_CodeBlocks(t *testing.T) {
	t.Run("known language is highlighted", func(t *testing.T) {
		out := convert(t, "```go\npackage main\n```", markdown.DefaultOptions())

		assert.Contains(t, out, `class="chroma"`)
		assert.Contains(t, out, "package")
	})

	t.Run("unknown language falls back to text", func(t *testing.T) {
		out := convert(t, "```nosuchlang\n<b>x</b>\n```", markdown.DefaultOptions())

		assert.Contains(t, out, `<code class="language-text">`)
		assert.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")
		assert.NotContains(t, out, "chroma")
	})

	t.Run("missing language falls back to text", func(t *testing.T) {
		out := convert(t, "```\nplain\n```", markdown.DefaultOptions())

		assert.Contains(t, out, `<code class="language-text">`)
	})

	t.Run("highlighting disabled renders plain block", func(t *testing.T) {
		opts := markdown.DefaultOptions()
		opts.HighlightCode = false

		out := convert(t, "```go\npackage main\n```", opts)

		assert.Contains(t, out, "<pre><code")
		assert.NotContains(t, out, "chroma")
	})
}

func TestConvert_SmartQuotes(t *testing.T) {
	input := `"quoted" -- text`

	plain := convert(t, input, markdown.DefaultOptions())

	opts := markdown.DefaultOptions()
	opts.SmartQuotes = true
	smart := convert(t, input, opts)

	assert.NotEqual(t, plain, smart)
	assert.True(t, strings.Contains(smart, "“") || strings.Contains(smart, "&ldquo;"), smart)
}

func TestConvert_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newConverter().Convert(ctx, "hello", markdown.DefaultOptions())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStyleSheet(t *testing.T) {
	css := newConverter().StyleSheet()

	assert.Contains(t, css, ".chroma")
}
