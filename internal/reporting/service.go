package reporting

import (
	"context"
	"errors"
	"time"

	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/wallet"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// Implementations must filter by user and read immutable sources where they
// exist (the wallet ledger).
type Repository interface {
	ListCampaigns(ctx context.Context, userID string, from, to time.Time) ([]campaigns.Campaign, error)
	ListCalls(ctx context.Context, userID string, from, to time.Time) ([]calls.Call, error)
	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]wallet.Transaction, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) check(req SummaryRequest) error {
	if req.UserID == "" || !req.Range.valid() {
		return ErrInvalidRequest
	}
	if s.repo == nil {
		return errors.New("reporting: repository not configured")
	}
	return nil
}

// Summary builds every section for one user.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (Summary, error) {
	out := Summary{UserID: req.UserID, Range: req.Range}
	var err error
	if out.Campaigns, err = s.CampaignsSummary(ctx, req); err != nil {
		return Summary{}, err
	}
	if out.Calls, err = s.CallsSummary(ctx, req); err != nil {
		return Summary{}, err
	}
	if out.Spend, err = s.SpendSummary(ctx, req); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *Service) CampaignsSummary(ctx context.Context, req SummaryRequest) (CampaignsSummary, error) {
	if err := s.check(req); err != nil {
		return CampaignsSummary{}, err
	}
	rows, err := s.repo.ListCampaigns(ctx, req.UserID, req.Range.From, req.Range.To)
	if err != nil {
		return CampaignsSummary{}, err
	}

	out := CampaignsSummary{ByChannel: map[string]int{}, ByStatus: map[string]int{}}
	for _, c := range rows {
		out.TotalCampaigns++
		out.ByChannel[string(c.Type)]++
		out.ByStatus[string(c.Status)]++
		out.MessagesSent += c.Stats.Sent
		out.MessagesFailed += c.Stats.Failed
		out.MessagesDelivered += c.Stats.Delivered
		out.CostMinor += c.Stats.Cost
	}
	if out.MessagesSent > 0 {
		out.DeliveryRate = float64(out.MessagesDelivered) / float64(out.MessagesSent)
	}
	return out, nil
}

func (s *Service) CallsSummary(ctx context.Context, req SummaryRequest) (CallsSummary, error) {
	if err := s.check(req); err != nil {
		return CallsSummary{}, err
	}
	rows, err := s.repo.ListCalls(ctx, req.UserID, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	var out CallsSummary
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		out.CostMinor += c.Cost
		if c.Direction == calls.DirectionInbound {
			out.InboundCalls++
		}
		if c.RecordingURL != "" {
			out.RecordedCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusNoAnswer:
			out.NoAnswerCalls++
		case calls.CallStatusBusy:
			out.BusyCalls++
		case calls.CallStatusCanceled:
			out.CanceledCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		case calls.CallStatusQueued, calls.CallStatusInitiated, calls.CallStatusRinging:
			// not counted separately
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func (s *Service) SpendSummary(ctx context.Context, req SummaryRequest) (SpendSummary, error) {
	if err := s.check(req); err != nil {
		return SpendSummary{}, err
	}
	txs, err := s.repo.ListTransactions(ctx, req.UserID, req.Range.From, req.Range.To)
	if err != nil {
		return SpendSummary{}, err
	}

	var out SpendSummary
	for _, tx := range txs {
		if out.Currency == "" {
			out.Currency = tx.Currency
		}
		abs := tx.Amount
		if abs < 0 {
			abs = -abs
		}
		switch tx.Type {
		case wallet.EntryTypeDebit:
			out.DebitMinor += abs
		case wallet.EntryTypeHold:
			out.HoldMinor += abs
		case wallet.EntryTypeRelease:
			out.ReleaseMinor += abs
		case wallet.EntryTypeRefund:
			out.RefundMinor += abs
		case wallet.EntryTypeCredit:
			out.CreditMinor += abs
			if tx.Reference == "admin_manual_credit" {
				out.AdminAdjustMinor += abs
			}
		}
	}
	out.NetSpendMinor = out.DebitMinor + out.HoldMinor - out.ReleaseMinor - out.RefundMinor
	if out.Currency == "" {
		out.Currency = "UNKNOWN"
	}
	return out, nil
}
