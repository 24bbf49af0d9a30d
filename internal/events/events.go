package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectCampaignDispatched = "campaign.dispatched"
	SubjectCallStatus         = "call.status"
	SubjectSMMOrder           = "smm.order"
	SubjectAutomationJob      = "automation.job"
)

// Publisher emits domain events. Publishing is best-effort: callers log
// failures and carry on, the database stays the source of truth.
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close()
}

// Envelope is the JSON document put on the wire.
type Envelope struct {
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

func encode(subject string, data any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", subject, err)
	}
	return json.Marshal(Envelope{Subject: subject, OccurredAt: now.UTC(), Data: raw})
}

// NATS publishes events as core NATS messages under a subject prefix.
type NATS struct {
	nc     *nats.Conn
	prefix string
}

func ConnectNATS(url, prefix, name string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{nc: nc, prefix: prefix}, nil
}

func (n *NATS) Publish(ctx context.Context, subject string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(subject, data, time.Now())
	if err != nil {
		return err
	}
	return n.nc.Publish(qualify(n.prefix, subject), b)
}

// Close flushes buffered messages before closing the connection.
func (n *NATS) Close() {
	if n.nc == nil {
		return
	}
	_ = n.nc.Drain()
}

func qualify(prefix, subject string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() {}

// Memory keeps published events in order; used by tests.
type Memory struct {
	mu     sync.Mutex
	events []Envelope
}

func (m *Memory) Publish(ctx context.Context, subject string, data any) error {
	b, err := encode(subject, data, time.Now())
	if err != nil {
		return err
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	m.mu.Lock()
	m.events = append(m.events, env)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() {}

func (m *Memory) Events() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Envelope(nil), m.events...)
}
