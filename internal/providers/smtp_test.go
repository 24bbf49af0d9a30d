package providers

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPSend(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "smtp.example.com", From: "news@brandbuzz.test"})
	var gotAddr string
	var gotTo []string
	var gotMsg string
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	res, err := s.Send(context.Background(), Message{To: "asha@example.com", Subject: "Offer", Body: "<b>50% off</b>"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.ProviderID == "" {
		t.Fatalf("expected message id")
	}
	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "asha@example.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Offer") || !strings.Contains(gotMsg, "<b>50% off</b>") {
		t.Fatalf("unexpected message:\n%s", gotMsg)
	}
}

func TestSMTPRejectsBadAddress(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "smtp.example.com"})
	if _, err := s.Send(context.Background(), Message{To: "not-an-email", Body: "x"}); err != ErrInvalidDestination {
		t.Fatalf("expected ErrInvalidDestination, got %v", err)
	}
}

func TestSMTPServerError(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "smtp.example.com"})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("550 mailbox unavailable") }
	if _, err := s.Send(context.Background(), Message{To: "a@b.co", Body: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}
