package telephony

import (
	"context"
	"time"
)

// InboundRouter decides what happens to a call arriving on a user's number.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Requests are user-scoped; the owner is resolved from the dialled number before routing.
type InboundRouter interface {
	RouteInboundCall(ctx context.Context, req InboundCallRequest) (InboundCallResult, error)
}

// InboundCallRequest represents an inbound call event received from a provider.
type InboundCallRequest struct {
	UserID string `json:"userId"`

	// CallSid is the provider's unique identifier for this call.
	CallSid string `json:"callSid"`

	// From and To are E.164 where possible.
	From string `json:"from"`
	To   string `json:"to"`

	// OccurredAt is the provider event time.
	OccurredAt time.Time `json:"occurredAt"`
}

// InboundCallResult drives the TwiML returned to the provider.
type InboundCallResult struct {
	UserID  string            `json:"userId"`
	CallSid string            `json:"callSid"`
	Action  InboundCallAction `json:"action"`

	// ConnectTo is used when Action == "connect".
	ConnectTo string `json:"connectTo,omitempty"`
	CallerID  string `json:"callerId,omitempty"`
	Greeting  string `json:"greeting,omitempty"`

	// Callback URLs for voicemail; filled by the HTTP layer.
	RecordingCallback  string `json:"-"`
	TranscribeCallback string `json:"-"`
}

type InboundCallAction string

const (
	InboundCallActionReject    InboundCallAction = "reject"
	InboundCallActionConnect   InboundCallAction = "connect"
	InboundCallActionHangup    InboundCallAction = "hangup"
	InboundCallActionVoicemail InboundCallAction = "voicemail"
)
