package markdown

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rewriteLinks sets target="_blank" and rel on every anchor start tag and
// copies everything else through untouched.
func rewriteLinks(src []byte, rel string) ([]byte, error) {
	var out bytes.Buffer

	out.Grow(len(src) + 64)

	z := html.NewTokenizer(bytes.NewReader(src))

	for {
		tt := z.Next()

		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out.Bytes(), nil
			}

			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()

			if tok.DataAtom != atom.A {
				out.Write(raw)
				continue
			}

			out.WriteString(anchorTag(tok, rel))
		default:
			out.Write(z.Raw())
		}
	}
}

func anchorTag(tok html.Token, rel string) string {
	attrs := make([]html.Attribute, 0, len(tok.Attr)+2)

	for _, a := range tok.Attr {
		if a.Key == "target" || a.Key == "rel" {
			continue
		}

		attrs = append(attrs, a)
	}

	attrs = append(attrs,
		html.Attribute{Key: "target", Val: "_blank"},
		html.Attribute{Key: "rel", Val: rel},
	)
	tok.Attr = attrs

	return tok.String()
}
