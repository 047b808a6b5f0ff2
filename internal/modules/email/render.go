package email

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shopspring/decimal"

	"alxtravel.com/app/internal/shared/money"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var ErrUnknownKind = errors.New("email: unknown job kind")

type Renderer struct {
	text map[string]*texttemplate.Template
	html map[string]*htmltemplate.Template
}

func formatMoney(currency, amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount + " " + currency
	}
	return money.Format(currency, d)
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		text: map[string]*texttemplate.Template{},
		html: map[string]*htmltemplate.Template{},
	}
	for _, kind := range []string{KindBookingConfirmation} {
		t, err := texttemplate.New(kind).
			Funcs(texttemplate.FuncMap{"money": formatMoney}).
			ParseFS(templateFS, "templates/"+kind+".txt.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", kind, err)
		}
		h, err := htmltemplate.New(kind).
			Funcs(htmltemplate.FuncMap{"money": formatMoney}).
			ParseFS(templateFS, "templates/"+kind+".html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s html template: %w", kind, err)
		}
		r.text[kind] = t
		r.html[kind] = h
	}
	return r, nil
}

// Render builds the message for a persisted job.
func (r *Renderer) Render(job OutboxJob) (Message, error) {
	t, ok := r.text[job.Kind]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}
	h := r.html[job.Kind]

	data, err := decodePayload(job)
	if err != nil {
		return Message{}, err
	}

	var subject, text, html bytes.Buffer
	if err := t.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Message{}, err
	}
	if err := t.ExecuteTemplate(&text, "body", data); err != nil {
		return Message{}, err
	}
	if err := h.ExecuteTemplate(&html, "body", data); err != nil {
		return Message{}, err
	}

	return Message{
		To:      job.Recipient,
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
		Headers: map[string]string{"X-Outbox-Job-ID": job.ID},
	}, nil
}

func decodePayload(job OutboxJob) (any, error) {
	switch job.Kind {
	case KindBookingConfirmation:
		var p BookingConfirmation
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", job.Kind, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}
}
