package markdown

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	classNames = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)
	checkbox   = regexp.MustCompile(`^checkbox$`)
	blankOnly  = regexp.MustCompile(`^_blank$`)
	relValue   = regexp.MustCompile(`^[a-z ]+$`)
	alignment  = regexp.MustCompile(`^(left|center|right)$`)
)

// newPolicy builds the allow-list. Script and style elements, style
// attributes and event handlers are never allowed, whatever the options.
func newPolicy(newTab, allowHTML bool) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"em", "strong", "del", "s", "sup", "sub",
		"table", "thead", "tbody", "tr", "th", "td",
		"a", "img", "span", "div", "input",
	)

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowAttrs("class").Matching(classNames).Globally()
	p.AllowAttrs("type").Matching(checkbox).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("align").Matching(alignment).OnElements("th", "td")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")

	if newTab {
		p.AllowAttrs("target").Matching(blankOnly).OnElements("a")
		p.AllowAttrs("rel").Matching(relValue).OnElements("a")
	}

	if allowHTML {
		p.AllowElements("iframe", "video", "audio", "source")
		p.AllowAttrs("src").OnElements("iframe", "video", "audio", "source")
		p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("iframe", "video")
		p.AllowAttrs("title", "allow", "allowfullscreen", "frameborder").OnElements("iframe")
		p.AllowAttrs("controls", "loop", "muted", "poster").OnElements("video", "audio")
		p.AllowAttrs("type").OnElements("source")
	}

	return p
}
