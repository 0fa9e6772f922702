package notify

import (
	"bytes"
	"html/template"
)

const appName = "Draftroom"

// messageData holds data for the notification email template.
type messageData struct {
	AppName   string
	Headline  string
	Title     string
	Comments  []string
	EditURL   string
	ViewURL   string
	OptOutURL string
}

// Parsed once; a malformed template fails at init rather than mid-dispatch.
var notificationEmail = template.Must(template.New("email").Parse(notificationEmailTemplate))

func renderNotificationEmail(data messageData) (string, error) {
	var buf bytes.Buffer
	if err := notificationEmail.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const notificationEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Headline}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        blockquote { border-left: 3px solid #0066cc; margin: 12px 0; padding: 4px 12px; color: #444; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <p>{{.Headline}}</p>
    {{if .Title}}<p><strong>{{.Title}}</strong></p>{{end}}

    {{range .Comments}}<blockquote>{{.}}</blockquote>
    {{end}}
    <p>Actions</p>

    <ul>
        <li><a href="{{.EditURL}}">Edit Post</a></li>
        <li><a href="{{.ViewURL}}">View Post</a></li>
    </ul>

    {{if .OptOutURL}}<div class="footer">
        <p>To opt out of these emails <a href="{{.OptOutURL}}">alter your email preferences</a>.</p>
    </div>{{end}}
</body>
</html>`
