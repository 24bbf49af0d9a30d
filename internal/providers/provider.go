package providers

import (
	"context"
	"errors"
	"strings"
)

// Channel is a messaging medium.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelVoice    Channel = "voice"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	// ChannelSocial covers SMM panel orders; it has no send adapter.
	ChannelSocial Channel = "social"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelVoice, ChannelWhatsApp, ChannelEmail, ChannelSocial:
		return true
	default:
		return false
	}
}

// UsesPhone reports whether recipients are addressed by phone number.
func (c Channel) UsesPhone() bool {
	return c == ChannelSMS || c == ChannelVoice || c == ChannelWhatsApp
}

// Message is one outbound send to one destination.
type Message struct {
	To       string
	Name     string
	Body     string
	Subject  string
	AudioURL string

	// Reference correlates provider callbacks with our records (campaign id).
	Reference string
}

// SendResult carries the provider's id for the accepted message or call.
type SendResult struct {
	ProviderID string
}

// Adapter sends through one vendor. Send performs exactly one attempt; any
// vendor rejection or transport failure is returned as an error and never
// retried here.
type Adapter interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) (SendResult, error)
}

var ErrInvalidDestination = errors.New("providers: invalid destination")

// Registry resolves the adapter for a channel.
type Registry struct {
	adapters map[Channel]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Channel]Adapter, len(adapters))}
	for _, a := range adapters {
		if a != nil {
			r.adapters[a.Channel()] = a
		}
	}
	return r
}

func (r *Registry) Get(ch Channel) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.adapters[ch]
	return a, ok
}

// Render substitutes {{name}} style placeholders in a message template.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*4)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v, "{{ "+k+" }}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
