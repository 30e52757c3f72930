package mail

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const WelcomeSubject = "Welcome to linkmark Pro"

var welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #111;">
  <h1>Welcome aboard!</h1>
  <p>Hi {{.Email}},</p>
  <p>Your subscription is active. The dashboard, QR scan tracking and detailed analytics are now unlocked.</p>
  <p><a href="{{.DashboardURL}}">Open your dashboard</a></p>
  <p>Thanks for supporting linkmark.</p>
</body>
</html>
`))

var welcomeText = texttemplate.Must(texttemplate.New("welcome").Parse(`Welcome aboard!

Hi {{.Email}},

Your subscription is active. The dashboard, QR scan tracking and detailed analytics are now unlocked.

Open your dashboard: {{.DashboardURL}}

Thanks for supporting linkmark.
`))

type welcomeData struct {
	Email        string
	DashboardURL string
}

// WelcomeMessage builds the email sent after a completed checkout.
func WelcomeMessage(email, baseURL string) (Message, error) {
	data := welcomeData{Email: email, DashboardURL: baseURL + "/dashboard"}

	var html, text bytes.Buffer

	if err := welcomeHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}

	if err := welcomeText.Execute(&text, data); err != nil {
		return Message{}, err
	}

	return Message{
		To:      email,
		Subject: WelcomeSubject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
