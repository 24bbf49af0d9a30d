package pricing

import "brandbuzz/internal/providers"

// Amounts are expressed in minor units (e.g., paise) using int64.

// ChargePolicy decides which sends of a campaign are billed.
type ChargePolicy string

const (
	// ChargeAttempted bills every recipient a send was attempted for.
	ChargeAttempted ChargePolicy = "attempted"
	// ChargeSucceeded bills only recipients the provider accepted.
	ChargeSucceeded ChargePolicy = "succeeded"
)

func (p ChargePolicy) Valid() bool {
	return p == ChargeAttempted || p == ChargeSucceeded
}

// ChannelRate is the flat per-recipient price of a channel.
type ChannelRate struct {
	UnitMinor int64        `json:"unitMinor"`
	Policy    ChargePolicy `json:"policy"`
}

// RateCard is the complete price list, loaded from configuration.
type RateCard struct {
	Currency string                            `json:"currency"`
	Channels map[providers.Channel]ChannelRate `json:"channels"`

	// VoiceMinuteMinor is the rate per started minute of a completed call.
	VoiceMinuteMinor int64 `json:"voiceMinuteMinor"`

	// BillingIncrementSeconds (60 for per-minute, 1 for per-second billing).
	BillingIncrementSeconds int `json:"billingIncrementSeconds"`

	// MinimumBillableSeconds enforces a minimum charge duration.
	MinimumBillableSeconds int `json:"minimumBillableSeconds"`

	// SMMMarkupPercent is added on top of the panel's wholesale rate.
	SMMMarkupPercent int64 `json:"smmMarkupPercent"`
}

type CallDirection string

const (
	CallDirectionInbound  CallDirection = "inbound"
	CallDirectionOutbound CallDirection = "outbound"
)
