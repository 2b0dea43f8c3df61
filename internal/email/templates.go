package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var (
	leadNotificationHTML = htmltemplate.Must(htmltemplate.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/lead_notification.html"))
	leadNotificationText = texttemplate.Must(texttemplate.New("lead_notification.txt").ParseFS(templateFS, "templates/lead_notification.txt"))
)

// message is a rendered email, ready for any transport.
type message struct {
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

type leadNotificationEmailData struct {
	Title   string
	Heading string
	Footer  string
	LeadNotification
}

// renderLeadNotification builds the operator email for one application. Replies
// go to the parent so the operator can answer straight from the inbox.
func renderLeadNotification(n LeadNotification) (message, error) {
	data := leadNotificationEmailData{
		Title:            titleLeadNotification,
		Heading:          titleLeadNotification,
		Footer:           footerApplicationForm,
		LeadNotification: n,
	}

	var html, text bytes.Buffer
	if err := leadNotificationHTML.ExecuteTemplate(&html, "email", data); err != nil {
		return message{}, fmt.Errorf("execute lead notification html: %w", err)
	}
	if err := leadNotificationText.Execute(&text, data); err != nil {
		return message{}, fmt.Errorf("execute lead notification text: %w", err)
	}

	return message{
		Subject: fmt.Sprintf(subjectLeadNotificationFmt, n.ChildName, n.Gender),
		HTML:    html.String(),
		Text:    text.String(),
		ReplyTo: n.Email,
	}, nil
}
