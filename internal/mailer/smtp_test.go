package mailer

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage(Email{
		From:     "no-reply@alxtravel.test",
		FromName: "ALX Travel",
		To:       []string{"guest@example.com"},
		Subject:  "Booking confirmed",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
		Headers:  map[string]string{"X-Booking-ID": "b-1"},
	})
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: Booking confirmed", "guest@example.com", "X-Booking-ID: b-1", "text/html", "plain"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessageRequiresSenderAndRecipient(t *testing.T) {
	if _, err := buildMessage(Email{To: []string{"a@b.c"}}); err == nil {
		t.Fatalf("expected missing from error")
	}
	if _, err := buildMessage(Email{From: "a@b.c"}); err == nil {
		t.Fatalf("expected missing recipients error")
	}
}
