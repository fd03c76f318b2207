// Package notify sends transactional email. Delivery is best-effort: callers
// log failures and never let them affect the operation that triggered them.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Deliver sends msg and logs, rather than returns, any failure.
func Deliver(ctx context.Context, n Notifier, log logrus.FieldLogger, msg Message) {
	if n == nil || msg.To == "" {
		return
	}
	if err := n.Send(ctx, msg); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"to":      msg.To,
			"subject": msg.Subject,
		}).Warn("Failed to send notification email")
	}
}

// LogNotifier writes messages to the log instead of sending them. It is used
// when SMTP is not configured.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.Log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email delivery disabled, message logged")
	return nil
}

// Send renders the named template and delivers it best-effort.
func Send(ctx context.Context, n Notifier, log logrus.FieldLogger, name, to string, data Data) {
	msg, err := Render(name, to, data)
	if err != nil {
		log.WithError(err).Error("Failed to render notification email")
		return
	}
	Deliver(ctx, n, log, msg)
}
