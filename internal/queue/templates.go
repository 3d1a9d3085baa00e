package queue

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/iliyamo/taxischool/internal/mail"
)

type mailTemplate struct {
	subject string
	body    string
}

// Bodies are written once as HTML; the text part is derived by
// stripping tags.
var mailTemplates = map[string]mailTemplate{
	EventReservationConfirmed: {
		subject: "Your place is confirmed",
		body: `<p>Hello {{.Name}},</p>
<p>Your reservation #{{.Ev.ReservationID}} for <strong>{{.Ev.FormationTitle}}</strong> starting {{.Ev.StartDate}} is confirmed.</p>`,
	},
	EventReservationCancelled: {
		subject: "Your reservation was cancelled",
		body: `<p>Hello {{.Name}},</p>
<p>Your reservation #{{.Ev.ReservationID}} for <strong>{{.Ev.FormationTitle}}</strong> has been cancelled.</p>`,
	},
	EventRentalConfirmed: {
		subject: "Your vehicle rental is confirmed",
		body: `<p>Hello {{.Name}},</p>
<p>Your rental #{{.Ev.RentalID}} from {{.Ev.StartDate}} to {{.Ev.EndDate}} is confirmed.</p>
<p>Follow it at <a href="{{.TrackingURL}}">{{.TrackingURL}}</a>.</p>`,
	},
	EventRentalCancelled: {
		subject: "Your vehicle rental was cancelled",
		body: `<p>Hello {{.Name}},</p>
<p>Your rental #{{.Ev.RentalID}} from {{.Ev.StartDate}} to {{.Ev.EndDate}} has been cancelled.</p>
<p>Details: <a href="{{.TrackingURL}}">{{.TrackingURL}}</a>.</p>`,
	},
	EventDocumentsAdded: {
		subject: "Documents received",
		body: `<p>Hello {{.Name}},</p>
<p>We received {{.Ev.DocumentCount}} document(s) for your file.</p>`,
	},
}

var parsedTemplates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(mailTemplates))
	for name, t := range mailTemplates {
		out[name] = template.Must(template.New(name).Parse(t.body))
	}
	return out
}()

// Render builds the mail for ev.  baseURL is the public front end used
// for the tracking link.
func Render(ev Event, baseURL string) (mail.Message, error) {
	tpl, ok := parsedTemplates[ev.Type]
	if !ok {
		return mail.Message{}, fmt.Errorf("no template for event %q", ev.Type)
	}
	name := ev.RecipientName
	if name == "" {
		name = ev.RecipientEmail
	}
	data := struct {
		Name        string
		Ev          Event
		TrackingURL string
	}{Name: name, Ev: ev}
	if ev.TrackingToken != "" {
		data.TrackingURL = strings.TrimRight(baseURL, "/") + "/tracking/" + ev.TrackingToken
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("render %s: %w", ev.Type, err)
	}
	html := buf.String()
	return mail.Message{
		To:      ev.RecipientEmail,
		ToName:  ev.RecipientName,
		Subject: mailTemplates[ev.Type].subject,
		HTML:    html,
		Text:    stripTags(html),
	}, nil
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
