package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fast2SMS sends SMS through the Fast2SMS bulk API.
type Fast2SMS struct {
	apiKey   string
	baseURL  string
	senderID string
	route    string

	httpClient *http.Client
}

type Fast2SMSConfig struct {
	APIKey   string
	BaseURL  string
	SenderID string
	Route    string
}

func NewFast2SMS(cfg Fast2SMSConfig) *Fast2SMS {
	route := cfg.Route
	if route == "" {
		route = "q"
	}
	return &Fast2SMS{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		senderID: cfg.SenderID,
		route:    route,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (f *Fast2SMS) Channel() Channel { return ChannelSMS }

type fast2smsRequest struct {
	Route    string `json:"route"`
	SenderID string `json:"sender_id,omitempty"`
	Message  string `json:"message"`
	Language string `json:"language"`
	Numbers  string `json:"numbers"`
}

type fast2smsResponse struct {
	Return    bool            `json:"return"`
	RequestID string          `json:"request_id"`
	Message   json.RawMessage `json:"message"`
}

func (f *Fast2SMS) Send(ctx context.Context, msg Message) (SendResult, error) {
	number := nationalNumber(msg.To)
	if number == "" {
		return SendResult{}, ErrInvalidDestination
	}

	body, err := json.Marshal(fast2smsRequest{
		Route:    f.route,
		SenderID: f.senderID,
		Message:  msg.Body,
		Language: "english",
		Numbers:  number,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return SendResult{}, fmt.Errorf("read response: %w", err)
	}

	var sr fast2smsResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return SendResult{}, fmt.Errorf("sms provider returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !sr.Return {
		return SendResult{}, fmt.Errorf("sms provider rejected: %s", vendorMessage(sr.Message, resp.StatusCode))
	}
	return SendResult{ProviderID: sr.RequestID}, nil
}

// nationalNumber reduces an Indian mobile number to the 10 digits Fast2SMS expects.
func nationalNumber(s string) string {
	d := digits(s)
	if len(d) == 12 && strings.HasPrefix(d, "91") {
		d = d[2:]
	}
	if len(d) == 11 && strings.HasPrefix(d, "0") {
		d = d[1:]
	}
	if len(d) != 10 {
		return ""
	}
	return d
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// vendorMessage extracts a readable error from the "message" field, which
// Fast2SMS sends as either a string or an array of strings.
func vendorMessage(raw json.RawMessage, status int) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return fmt.Sprintf("status %d", status)
}
