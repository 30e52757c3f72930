package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// PlainLanguage is the class used for blocks rendered without highlighting.
const PlainLanguage = "text"

// codeBlockRenderer renders fenced code through chroma with CSS classes.
// Unknown or missing languages and highlighter failures fall back to a
// plain escaped block.
type codeBlockRenderer struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func newCodeBlockRenderer(style *chroma.Style) *codeBlockRenderer {
	return &codeBlockRenderer{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     style,
	}
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ast.FencedCodeBlock)
	lang := strings.ToLower(string(n.Language(source)))
	code := blockText(n, source)

	if lang != "" {
		if lexer := lexers.Get(lang); lexer != nil {
			var buf bytes.Buffer
			if r.highlight(&buf, lexer, code) {
				_, _ = w.Write(buf.Bytes())
				return ast.WalkContinue, nil
			}
		}
	}

	writePlainBlock(w, code)

	return ast.WalkContinue, nil
}

func (r *codeBlockRenderer) highlight(buf *bytes.Buffer, lexer chroma.Lexer, code string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return false
	}

	return r.formatter.Format(buf, r.style, iterator) == nil
}

// styleSheet returns the CSS for the highlighter classes.
func (r *codeBlockRenderer) styleSheet() string {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, r.style); err != nil {
		return ""
	}

	return buf.String()
}

func blockText(n *ast.FencedCodeBlock, source []byte) string {
	var b strings.Builder

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}

	return b.String()
}

func writePlainBlock(w util.BufWriter, code string) {
	_, _ = w.WriteString(`<pre><code class="language-` + PlainLanguage + `">`)
	_, _ = w.WriteString(html.EscapeString(code))
	_, _ = w.WriteString("</code></pre>\n")
}

func lookupStyle(name string) *chroma.Style {
	return styles.Get(name)
}
