package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

// SummaryRequest scopes every report to one user and a half-open range.
type SummaryRequest struct {
	UserID string    `json:"userId"`
	Range  TimeRange `json:"range"`
}

type CampaignsSummary struct {
	TotalCampaigns int            `json:"totalCampaigns"`
	ByChannel      map[string]int `json:"byChannel"`
	ByStatus       map[string]int `json:"byStatus"`

	MessagesSent      int `json:"messagesSent"`
	MessagesFailed    int `json:"messagesFailed"`
	MessagesDelivered int `json:"messagesDelivered"`

	// DeliveryRate is delivered over sent, 0 when nothing was sent.
	DeliveryRate float64 `json:"deliveryRate"`
	CostMinor    int64   `json:"costMinor"`
}

type CallsSummary struct {
	TotalCalls      int `json:"totalCalls"`
	InboundCalls    int `json:"inboundCalls"`
	CompletedCalls  int `json:"completedCalls"`
	FailedCalls     int `json:"failedCalls"`
	NoAnswerCalls   int `json:"noAnswerCalls"`
	BusyCalls       int `json:"busyCalls"`
	CanceledCalls   int `json:"canceledCalls"`
	InProgressCalls int `json:"inProgressCalls"`

	TotalDurationSeconds   int `json:"totalDurationSeconds"`
	AverageDurationSeconds int `json:"averageDurationSeconds"`

	RecordedCalls int   `json:"recordedCalls"`
	CostMinor     int64 `json:"costMinor"`
}

// SpendSummary is derived from immutable ledger entries.
type SpendSummary struct {
	Currency string `json:"currency"`

	DebitMinor   int64 `json:"debitMinor"`
	HoldMinor    int64 `json:"holdMinor"`
	ReleaseMinor int64 `json:"releaseMinor"`
	RefundMinor  int64 `json:"refundMinor"`
	CreditMinor  int64 `json:"creditMinor"`

	// NetSpendMinor is debits plus holds, net of releases and refunds.
	NetSpendMinor    int64 `json:"netSpendMinor"`
	AdminAdjustMinor int64 `json:"adminAdjustMinor"`
}

type Summary struct {
	UserID    string           `json:"userId"`
	Range     TimeRange        `json:"range"`
	Campaigns CampaignsSummary `json:"campaigns"`
	Calls     CallsSummary     `json:"calls"`
	Spend     SpendSummary     `json:"spend"`
}
