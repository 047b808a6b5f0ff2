package email

import (
	"context"

	"alxtravel.com/app/internal/mailer"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Headers map[string]string
}

// Sender stamps the configured sender identity onto outgoing messages.
type Sender struct {
	mailer   mailer.Service
	fromAddr string
	fromName string
}

func NewSender(m mailer.Service, fromAddr, fromName string) *Sender {
	return &Sender{mailer: m, fromAddr: fromAddr, fromName: fromName}
}

func (s *Sender) Send(ctx context.Context, m Message) error {
	return s.mailer.Send(ctx, mailer.Email{
		From:     s.fromAddr,
		FromName: s.fromName,
		To:       []string{m.To},
		Subject:  m.Subject,
		TextBody: m.Text,
		HTMLBody: m.HTML,
		Headers:  m.Headers,
	})
}
