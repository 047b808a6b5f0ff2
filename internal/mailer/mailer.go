// Package mailer delivers the outbox's rendered emails. The SMTP sender is
// used in production and Mock records messages for tests.
package mailer

import "context"

// Service sends one message. Errors are retried by the outbox worker.
type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string
	From     string

	To  []string
	Cc  []string
	Bcc []string

	Subject string

	TextBody string
	HTMLBody string

	Headers map[string]string
}

// AllRecipients is the SMTP envelope list: To, then Cc, then Bcc.
func (e Email) AllRecipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	out = append(out, e.To...)
	out = append(out, e.Cc...)
	out = append(out, e.Bcc...)
	return out
}
