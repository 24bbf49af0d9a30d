package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFast2SMSSend(t *testing.T) {
	var got fast2smsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "k1" {
			t.Errorf("expected api key header, got %q", r.Header.Get("authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"return":true,"request_id":"req-1","message":["SMS sent successfully."]}`))
	}))
	defer srv.Close()

	f := NewFast2SMS(Fast2SMSConfig{APIKey: "k1", BaseURL: srv.URL, SenderID: "BRBUZZ"})
	res, err := f.Send(context.Background(), Message{To: "+91 98765-43210", Body: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.ProviderID != "req-1" {
		t.Fatalf("expected request id, got %q", res.ProviderID)
	}
	if got.Numbers != "9876543210" || got.Message != "hello" || got.Route != "q" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestFast2SMSRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"return":false,"status_code":412,"message":"Invalid Authentication"}`))
	}))
	defer srv.Close()

	f := NewFast2SMS(Fast2SMSConfig{APIKey: "bad", BaseURL: srv.URL})
	_, err := f.Send(context.Background(), Message{To: "9876543210", Body: "hi"})
	if err == nil {
		t.Fatalf("expected rejection error")
	}
	if !strings.Contains(err.Error(), "Invalid Authentication") {
		t.Fatalf("expected vendor message in error, got %v", err)
	}
}

func TestFast2SMSInvalidNumber(t *testing.T) {
	f := NewFast2SMS(Fast2SMSConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if _, err := f.Send(context.Background(), Message{To: "12345", Body: "hi"}); err != ErrInvalidDestination {
		t.Fatalf("expected ErrInvalidDestination, got %v", err)
	}
}

func TestNationalNumber(t *testing.T) {
	cases := map[string]string{
		"9876543210":      "9876543210",
		"+919876543210":   "9876543210",
		"09876543210":     "9876543210",
		"+1 415 555 0100": "",
	}
	for in, want := range cases {
		if got := nationalNumber(in); got != want {
			t.Fatalf("nationalNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
