package notify

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"
)

// Template names
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "password_reset"
	TemplateRSVPNew       = "rsvp_new"
	TemplateRSVPUpdated   = "rsvp_updated"
	TemplateRSVPCancelled = "rsvp_cancelled"
	TemplateComment       = "comment"
	TemplateReply         = "reply"
	TemplateEventUpdate   = "event_update"
	TemplateEventReminder = "event_reminder"
)

var subjects = map[string]string{
	TemplateWelcome:       "Welcome to EventHub",
	TemplatePasswordReset: "Password Reset Request",
	TemplateRSVPNew:       "New RSVP Received",
	TemplateRSVPUpdated:   "RSVP Updated",
	TemplateRSVPCancelled: "RSVP Cancelled",
	TemplateComment:       "New Comment on Your Event",
	TemplateReply:         "New Reply to Your Comment",
	TemplateEventUpdate:   "Event Updated",
	TemplateEventReminder: "Event Reminder",
}

const layout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#333">
<div style="max-width:600px;margin:0 auto;padding:20px">
<h2 style="color:#4f46e5">EventHub</h2>
{{template "body" .}}
<p style="color:#888;font-size:12px">You are receiving this email because you have an EventHub account.</p>
</div></body></html>{{end}}`

var bodies = map[string]string{
	TemplateWelcome: `<p>Hi {{.Name}},</p>
<p>Welcome to EventHub! You can now discover events, RSVP and join the conversation.</p>`,
	TemplatePasswordReset: `<p>Hi {{.Name}},</p>
<p>You requested a password reset. Use the link below within 10 minutes:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>If you did not request this, ignore this email.</p>`,
	TemplateRSVPNew:       `<p>{{.Name}} has RSVPed "{{.Status}}" to your event "{{.EventTitle}}".</p>`,
	TemplateRSVPUpdated:   `<p>{{.Name}} has updated their RSVP to "{{.Status}}" for your event "{{.EventTitle}}".</p>`,
	TemplateRSVPCancelled: `<p>{{.Name}} has cancelled their RSVP for your event "{{.EventTitle}}".</p>`,
	TemplateComment: `<p>{{.Name}} commented on your event "{{.EventTitle}}":</p>
<blockquote>{{.Content}}</blockquote>`,
	TemplateReply: `<p>{{.Name}} replied to your comment on "{{.EventTitle}}":</p>
<blockquote>{{.Content}}</blockquote>`,
	TemplateEventUpdate: `<p>The event "{{.EventTitle}}" you are attending has been updated.</p>
<p>Date: {{.Date}} {{.Time}}</p>`,
	TemplateEventReminder: `<p>Hi {{.Name}},</p>
<p>This is a reminder that "{{.EventTitle}}" starts on {{.Date}} at {{.Time}}.</p>
<p>Location: {{.Location}}</p>`,
}

var templates = parseTemplates()

func parseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t := template.Must(template.New(name).Parse(layout))
		out[name] = template.Must(t.New("body").Parse(body))
	}
	return out
}

// Data is the union of the fields the templates reference.
type Data struct {
	Name       string
	EventTitle string
	Status     string
	Content    string
	URL        string
	Date       string
	Time       string
	Location   string
}

// Render builds a message for the named template.
func Render(name, to string, data Data) (Message, error) {
	t, ok := templates[name]
	if !ok {
		return Message{}, errors.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return Message{}, errors.Wrapf(err, "render %s", name)
	}
	return Message{To: to, Subject: subjects[name], HTML: buf.String()}, nil
}
