package routing

// Decision is the provider-agnostic output of the routing engine.
//
// It carries only what the TwiML boundary needs to execute the decision.
type Decision struct {
	UserID string `json:"userId"`

	Action    Action `json:"action"`
	ConnectTo string `json:"connectTo,omitempty"`

	// Reason is for internal logs only.
	Reason string `json:"reason,omitempty"`
}

type Action string

const (
	ActionReject    Action = "reject"
	ActionConnect   Action = "connect"
	ActionHangup    Action = "hangup"
	ActionVoicemail Action = "voicemail"
)
