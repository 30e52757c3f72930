package view

import (
	"bytes"
	"html/template"
)

// DocumentPageData feeds the rendered markdown page. HTML must already be
// sanitized; it is inserted verbatim.
type DocumentPageData struct {
	Title      string
	HTML       string
	StyleSheet string
}

var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}</title>
	<style>{{.StyleSheet}}</style>
</head>
<body>
	<article class="markdown-body">
{{.HTML}}
	</article>
</body>
</html>
`))

// DocumentPage renders a sanitized markdown document as a standalone page.
func DocumentPage(data DocumentPageData) ([]byte, error) {
	var buf bytes.Buffer

	err := documentTmpl.Execute(&buf, struct {
		Title      string
		HTML       template.HTML
		StyleSheet template.CSS
	}{
		Title:      data.Title,
		HTML:       template.HTML(data.HTML),
		StyleSheet: template.CSS(data.StyleSheet),
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
