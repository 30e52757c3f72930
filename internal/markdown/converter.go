// Package markdown converts user markdown into sanitized HTML.
//
// The pipeline is parse (GitHub flavored, hard line breaks) -> fenced code
// highlighting -> optional anchor rewriting -> allow-list sanitizing. The
// sanitizer always runs last.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
)

// MaxInputLength is counted in characters, not bytes.
const MaxInputLength = 500_000

// DefaultStyle is the chroma style used for the generated stylesheet.
const DefaultStyle = "github"

var (
	ErrEmptyInput = domain.NewValidationError("", "Markdown content is required")
	ErrTooLong    = domain.NewValidationError("",
		"Markdown content exceeds the maximum length of 500000 characters")
	ErrNotText          = domain.NewValidationError("", "Markdown content must be valid UTF-8 text")
	ErrConversionFailed = errors.New("failed to convert markdown")
)

// Result is the output of a conversion.
type Result struct {
	HTML       string
	RenderTime time.Duration
}

// RenderTimeMillis returns the render time in fractional milliseconds.
func (r Result) RenderTimeMillis() float64 {
	return float64(r.RenderTime.Microseconds()) / 1000
}

// DurationObserver receives every successful render time.
type DurationObserver func(d time.Duration)

type engineKey struct {
	allowHTML   bool
	smartQuotes bool
	highlight   bool
}

type policyKey struct {
	newTab    bool
	allowHTML bool
}

// Converter is safe for concurrent use. Every option combination gets its
// own prebuilt engine and policy.
type Converter struct {
	engines  map[engineKey]goldmark.Markdown
	policies map[policyKey]*bluemonday.Policy
	code     *codeBlockRenderer
	logger   *zap.Logger
	observe  DurationObserver
}

// NewConverter builds a converter. A nil observer is allowed.
func NewConverter(logger *zap.Logger, observe DurationObserver) *Converter {
	if observe == nil {
		observe = func(time.Duration) {}
	}

	c := &Converter{
		engines:  make(map[engineKey]goldmark.Markdown),
		policies: make(map[policyKey]*bluemonday.Policy),
		code:     newCodeBlockRenderer(lookupStyle(DefaultStyle)),
		logger:   logger,
		observe:  observe,
	}

	for _, allowHTML := range []bool{false, true} {
		for _, smart := range []bool{false, true} {
			for _, highlight := range []bool{false, true} {
				key := engineKey{allowHTML: allowHTML, smartQuotes: smart, highlight: highlight}
				c.engines[key] = c.newEngine(key)
			}
		}

		for _, newTab := range []bool{false, true} {
			c.policies[policyKey{newTab: newTab, allowHTML: allowHTML}] = newPolicy(newTab, allowHTML)
		}
	}

	return c
}

func (c *Converter) newEngine(key engineKey) goldmark.Markdown {
	exts := []goldmark.Extender{
		extension.Linkify,
		extension.NewTable(extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute)),
		extension.Strikethrough,
		extension.TaskList,
	}

	if key.smartQuotes {
		exts = append(exts, extension.Typographer)
	}

	rendererOpts := []renderer.Option{html.WithHardWraps()}

	if key.allowHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	if key.highlight {
		rendererOpts = append(rendererOpts,
			renderer.WithNodeRenderers(util.Prioritized(c.code, 100)))
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// Validate checks input before any conversion work happens.
func Validate(text string) error {
	if !utf8.ValidString(text) {
		return ErrNotText
	}

	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	if utf8.RuneCountInString(text) > MaxInputLength {
		return ErrTooLong
	}

	return nil
}

// Convert renders text to sanitized HTML. Validation failures are
// domain.ValidationError values, anything unexpected is ErrConversionFailed.
func (c *Converter) Convert(ctx context.Context, text string, opts Options) (res Result, err error) {
	if err = Validate(text); err != nil {
		return Result{}, err
	}

	if err = ctx.Err(); err != nil {
		return Result{}, err
	}

	opts = opts.normalized()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("markdown conversion panicked", zap.Any("panic", r))

			res, err = Result{}, ErrConversionFailed
		}
	}()

	var buf bytes.Buffer

	engine := c.engines[engineKey{allowHTML: opts.AllowHTML, smartQuotes: opts.SmartQuotes, highlight: opts.HighlightCode}]
	if err = engine.Convert([]byte(text), &buf); err != nil {
		c.logger.Error("markdown parse failed", zap.Error(err))
		return Result{}, ErrConversionFailed
	}

	out := buf.Bytes()

	if opts.OpenLinksInNewTab {
		if out, err = rewriteLinks(out, opts.LinkRel); err != nil {
			c.logger.Error("markdown link rewrite failed", zap.Error(err))
			return Result{}, ErrConversionFailed
		}
	}

	clean := c.policies[policyKey{newTab: opts.OpenLinksInNewTab, allowHTML: opts.AllowHTML}].SanitizeBytes(out)

	res = Result{HTML: string(clean), RenderTime: time.Since(start)}
	c.observe(res.RenderTime)

	return res, nil
}

// StyleSheet returns the CSS that themes highlighted code blocks.
func (c *Converter) StyleSheet() string {
	return c.code.styleSheet()
}
