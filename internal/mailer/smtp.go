package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	"alxtravel.com/app/internal/config"
)

type SMTPMailer struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, timeout: 10 * time.Second}
}

func (m *SMTPMailer) Send(ctx context.Context, e Email) error {
	msg, err := buildMessage(e)
	if err != nil {
		return err
	}
	c, err := m.client()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) client() (*mail.Client, error) {
	port, err := strconv.Atoi(m.cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("smtp port %q: %w", m.cfg.Port, err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(m.timeout),
		mail.WithTLSConfig(&tls.Config{
			ServerName:         m.cfg.Host,
			InsecureSkipVerify: m.cfg.SkipVerifyTLS,
		}),
	}
	switch m.cfg.TLSMode {
	case "tls":
		opts = append(opts, mail.WithSSL())
	case "starttls":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Pass),
		)
	}
	return mail.NewClient(m.cfg.Host, opts...)
}

func buildMessage(e Email) (*mail.Msg, error) {
	if e.From == "" {
		return nil, errors.New("mail: from is required")
	}
	if len(e.AllRecipients()) == 0 {
		return nil, errors.New("mail: no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(e.FromName, e.From); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if len(e.To) > 0 {
		if err := msg.To(e.To...); err != nil {
			return nil, fmt.Errorf("mail to: %w", err)
		}
	}
	if len(e.Cc) > 0 {
		if err := msg.Cc(e.Cc...); err != nil {
			return nil, fmt.Errorf("mail cc: %w", err)
		}
	}
	if len(e.Bcc) > 0 {
		if err := msg.Bcc(e.Bcc...); err != nil {
			return nil, fmt.Errorf("mail bcc: %w", err)
		}
	}
	msg.Subject(e.Subject)
	for k, v := range e.Headers {
		msg.SetGenHeader(mail.Header(k), v)
	}

	switch {
	case e.TextBody != "" && e.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	case e.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, e.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
	}
	return msg, nil
}
