package smm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrPanel wraps every failure reported by or while talking to the panel.
var ErrPanel = errors.New("smm panel error")

// Panel is the social-growth panel API.
type Panel interface {
	Services(ctx context.Context) ([]PanelService, error)
	AddOrder(ctx context.Context, service, link string, quantity int64) (string, error)
	Status(ctx context.Context, orderID string) (PanelStatus, error)
}

// Client speaks the common panel API v2: form POSTs carrying key and action.
type Client struct {
	url  string
	key  string
	http *http.Client
}

func NewClient(apiURL, key string) *Client {
	return &Client{url: apiURL, key: key, http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) Services(ctx context.Context) ([]PanelService, error) {
	var out []PanelService
	if err := c.call(ctx, url.Values{"action": {"services"}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddOrder(ctx context.Context, service, link string, quantity int64) (string, error) {
	var out struct {
		Order json.Number `json:"order"`
	}
	form := url.Values{
		"action":   {"add"},
		"service":  {service},
		"link":     {link},
		"quantity": {strconv.FormatInt(quantity, 10)},
	}
	if err := c.call(ctx, form, &out); err != nil {
		return "", err
	}
	if out.Order == "" {
		return "", fmt.Errorf("%w: no order id returned", ErrPanel)
	}
	return out.Order.String(), nil
}

func (c *Client) Status(ctx context.Context, orderID string) (PanelStatus, error) {
	var out PanelStatus
	if err := c.call(ctx, url.Values{"action": {"status"}, "order": {orderID}}, &out); err != nil {
		return PanelStatus{}, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, form url.Values, out any) error {
	if c.url == "" || c.key == "" {
		return fmt.Errorf("%w: panel is not configured", ErrPanel)
	}
	form.Set("key", c.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPanel, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPanel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrPanel, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d", ErrPanel, resp.StatusCode)
	}

	// Panels report failures as {"error": "..."} with a 200 status.
	var perr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &perr) == nil && perr.Error != "" {
		return fmt.Errorf("%w: %s", ErrPanel, perr.Error)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrPanel, err)
	}
	return nil
}
