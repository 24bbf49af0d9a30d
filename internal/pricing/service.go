package pricing

import (
	"errors"
	"fmt"
	"strings"

	"brandbuzz/internal/providers"
)

// Service calculates costs from the configured rate card.
//
// Contract:
// - Pure calculation; no storage and no provider SDK calls.
// - Costs are whole minor units, rounded up.
type Service struct {
	card RateCard
}

func NewService(card RateCard) *Service {
	if card.BillingIncrementSeconds <= 0 {
		card.BillingIncrementSeconds = 60
	}
	return &Service{card: card}
}

var (
	ErrPricingNotFound   = errors.New("pricing not found")
	ErrInvalidPricingReq = errors.New("invalid pricing request")
)

func (s *Service) Currency() string { return s.card.Currency }

// VoiceMinuteRate is the per-minute call rate in minor units.
func (s *Service) VoiceMinuteRate() int64 { return s.card.VoiceMinuteMinor }

func (s *Service) rate(ch providers.Channel) (ChannelRate, error) {
	r, ok := s.card.Channels[ch]
	if !ok {
		return ChannelRate{}, fmt.Errorf("%w: channel %q", ErrPricingNotFound, ch)
	}
	if !r.Policy.Valid() {
		r.Policy = ChargeSucceeded
	}
	return r, nil
}

func (s *Service) UnitPrice(ch providers.Channel) (int64, error) {
	r, err := s.rate(ch)
	if err != nil {
		return 0, err
	}
	return r.UnitMinor, nil
}

func (s *Service) Policy(ch providers.Channel) ChargePolicy {
	r, err := s.rate(ch)
	if err != nil {
		return ChargeSucceeded
	}
	return r.Policy
}

// Estimate is the most a campaign to n recipients can cost.
func (s *Service) Estimate(ch providers.Channel, recipients int) (int64, error) {
	if recipients < 0 {
		return 0, ErrInvalidPricingReq
	}
	r, err := s.rate(ch)
	if err != nil {
		return 0, err
	}
	return r.UnitMinor * int64(recipients), nil
}

// Charge is the actual cost of a finished campaign under the channel policy.
func (s *Service) Charge(ch providers.Channel, attempted, succeeded int) (int64, error) {
	if attempted < 0 || succeeded < 0 || succeeded > attempted {
		return 0, ErrInvalidPricingReq
	}
	r, err := s.rate(ch)
	if err != nil {
		return 0, err
	}
	billed := succeeded
	if r.Policy == ChargeAttempted {
		billed = attempted
	}
	return r.UnitMinor * int64(billed), nil
}

type CallCostRequest struct {
	Direction CallDirection

	// DurationSeconds is the call duration in seconds (billable seconds are derived).
	DurationSeconds int
}

type CallCost struct {
	Direction CallDirection
	Currency  string

	BillableSeconds int
	BillableMinutes int

	RatePerMinuteMinor int64
	TotalMinor         int64
}

// CalculateCallCost computes the cost of a call from its duration. A zero
// duration (unanswered call) costs nothing.
func (s *Service) CalculateCallCost(req CallCostRequest) (CallCost, error) {
	if req.Direction != CallDirectionInbound && req.Direction != CallDirectionOutbound {
		return CallCost{}, ErrInvalidPricingReq
	}
	if req.DurationSeconds < 0 {
		return CallCost{}, ErrInvalidPricingReq
	}

	out := CallCost{
		Direction:          req.Direction,
		Currency:           s.card.Currency,
		RatePerMinuteMinor: s.card.VoiceMinuteMinor,
	}
	if req.DurationSeconds == 0 {
		return out, nil
	}

	out.BillableSeconds = billableSeconds(req.DurationSeconds, s.card.MinimumBillableSeconds, s.card.BillingIncrementSeconds)
	out.BillableMinutes = billableMinutesFromSeconds(out.BillableSeconds)
	out.TotalMinor = s.card.VoiceMinuteMinor * int64(out.BillableMinutes)
	return out, nil
}

// SMMCost prices a panel order. rate is the panel's price per 1000 units in
// major currency units as a decimal string ("0.90").
func (s *Service) SMMCost(rate string, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, ErrInvalidPricingReq
	}
	micro, err := parseMicros(rate)
	if err != nil {
		return 0, err
	}
	markup := s.card.SMMMarkupPercent
	if markup < 0 {
		markup = 0
	}
	// micro major units -> minor units is /1e4; per 1000 is /1e3; percent is /1e2.
	const denom = int64(1_000_000_000)
	num := micro * quantity * (100 + markup)
	cost := num / denom
	if num%denom != 0 {
		cost++
	}
	return cost, nil
}

// parseMicros parses a non-negative decimal into millionths without going
// through floating point.
func parseMicros(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("%w: empty rate", ErrInvalidPricingReq)
	}
	whole, frac, _ := strings.Cut(v, ".")
	if len(frac) > 6 {
		frac = frac[:6]
	}
	frac += strings.Repeat("0", 6-len(frac))

	var n int64
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: rate %q", ErrInvalidPricingReq, v)
		}
		n = n*10 + int64(r-'0')
		if n > 1<<40 {
			return 0, fmt.Errorf("%w: rate %q too large", ErrInvalidPricingReq, v)
		}
	}
	return n, nil
}

func billableSeconds(actualSec int, minSec int, incrementSec int) int {
	if actualSec < 0 {
		return 0
	}
	if minSec <= 0 {
		minSec = 0
	}
	if incrementSec <= 0 {
		incrementSec = 60
	}

	sec := actualSec
	if sec < minSec {
		sec = minSec
	}

	// round up to nearest increment
	q := sec / incrementSec
	r := sec % incrementSec
	if r != 0 {
		q++
	}
	return q * incrementSec
}

func billableMinutesFromSeconds(sec int) int {
	if sec <= 0 {
		return 0
	}
	m := sec / 60
	if sec%60 != 0 {
		m++
	}
	return m
}
