package markdown

import (
	"regexp"
	"strings"
)

// DefaultLinkRel is applied to rewritten anchors when no rel is configured.
const DefaultLinkRel = "nofollow noopener noreferrer"

// Options enumerates every recognized conversion switch.
type Options struct {
	// OpenLinksInNewTab adds target="_blank" and LinkRel to every anchor.
	OpenLinksInNewTab bool
	// LinkRel is the rel value written on rewritten anchors.
	LinkRel string
	// AllowHTML passes raw HTML through to the sanitizer and admits
	// iframe, video, audio and source embeds.
	AllowHTML bool
	// SmartQuotes enables typographic quote and dash substitution.
	SmartQuotes bool
	// HighlightCode renders fenced code through the syntax highlighter.
	HighlightCode bool
}

// DefaultOptions returns the options used when a caller sets nothing.
func DefaultOptions() Options {
	return Options{
		LinkRel:       DefaultLinkRel,
		HighlightCode: true,
	}
}

var relToken = regexp.MustCompile(`^[a-z]+$`)

// normalized drops unusable rel tokens and falls back to DefaultLinkRel.
func (o Options) normalized() Options {
	var tokens []string

	for _, tok := range strings.Fields(strings.ToLower(o.LinkRel)) {
		if relToken.MatchString(tok) {
			tokens = append(tokens, tok)
		}
	}

	if len(tokens) == 0 {
		o.LinkRel = DefaultLinkRel
	} else {
		o.LinkRel = strings.Join(tokens, " ")
	}

	return o
}
