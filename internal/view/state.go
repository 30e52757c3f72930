// Package view renders the HTML pages served on redirect surfaces.
package view

import (
	"bytes"
	"html/template"
	"net/http"
)

// State names a terminal redirect outcome that gets its own page.
type State string

const (
	StateNotFound    State = "not_found"
	StateDeactivated State = "deactivated"
	StateExpired     State = "expired"
	StateError       State = "error"
)

type statePage struct {
	Status  int
	Title   string
	Message string
}

var statePages = map[State]statePage{
	StateNotFound: {
		Status:  http.StatusNotFound,
		Title:   "Link not found",
		Message: "This link does not exist. Check the address and try again.",
	},
	StateDeactivated: {
		Status:  http.StatusGone,
		Title:   "Link deactivated",
		Message: "The owner of this link has turned it off.",
	},
	StateExpired: {
		Status:  http.StatusGone,
		Title:   "Link expired",
		Message: "This link has passed its expiry date and no longer redirects.",
	},
	StateError: {
		Status:  http.StatusInternalServerError,
		Title:   "Something went wrong",
		Message: "We could not open this link right now. Please try again shortly.",
	},
}

var stateTmpl = template.Must(template.New("state").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<meta name="robots" content="noindex" />
	<title>{{.Title}}</title>
</head>
<body>
	<main>
		<h1>{{.Title}}</h1>
		<p>{{.Message}}</p>
		{{if .Code}}<p><code>/{{.Code}}</code></p>{{end}}
		<p><a href="/">Go to the home page</a></p>
	</main>
</body>
</html>
`))

// StatePage renders the page for state and returns it with its HTTP status.
// Unknown states render the error page.
func StatePage(state State, code string) (int, []byte, error) {
	page, ok := statePages[state]
	if !ok {
		page = statePages[StateError]
	}

	var buf bytes.Buffer

	err := stateTmpl.Execute(&buf, map[string]any{
		"Title":   page.Title,
		"Message": page.Message,
		"Code":    code,
	})
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	return page.Status, buf.Bytes(), nil
}
