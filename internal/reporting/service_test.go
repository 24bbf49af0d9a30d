package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/providers"
	"brandbuzz/internal/wallet"
)

var now = time.Unix(1700000000, 0).UTC()

func window() TimeRange { return TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)} }

func TestReporting_UserIsolation(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Calls = []calls.Call{
		{CallSid: "c1", UserID: "u1", Status: calls.CallStatusCompleted, DurationSeconds: 30, CreatedAt: now},
		{CallSid: "c2", UserID: "u2", Status: calls.CallStatusCompleted, DurationSeconds: 50, CreatedAt: now},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), SummaryRequest{UserID: "u1", Range: window()})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 || out.TotalDurationSeconds != 30 {
		t.Fatalf("expected 1 call of 30s, got %+v", out)
	}
}

func TestReporting_CallsSummaryCountsOutcomes(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Calls = []calls.Call{
		{UserID: "u", Status: calls.CallStatusCompleted, DurationSeconds: 90, Cost: 200, RecordingURL: "r", CreatedAt: now},
		{UserID: "u", Status: calls.CallStatusNoAnswer, CreatedAt: now},
		{UserID: "u", Direction: calls.DirectionInbound, Status: calls.CallStatusBusy, CreatedAt: now},
		{UserID: "u", Status: calls.CallStatusCompleted, DurationSeconds: 30, CreatedAt: now.Add(-2 * time.Hour)},
	}
	out, err := NewService(repo).CallsSummary(context.Background(), SummaryRequest{UserID: "u", Range: window()})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 3 || out.CompletedCalls != 1 || out.NoAnswerCalls != 1 || out.BusyCalls != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.InboundCalls != 1 || out.RecordedCalls != 1 || out.AverageDurationSeconds != 30 || out.CostMinor != 200 {
		t.Fatalf("unexpected aggregates: %+v", out)
	}
}

func TestReporting_SpendSummaryAggregates(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Transactions = []wallet.Transaction{
		{UserID: "u", Type: wallet.EntryTypeCredit, Currency: "INR", Amount: 1000, CreatedAt: now},
		{UserID: "u", Type: wallet.EntryTypeHold, Currency: "INR", Amount: -500, CreatedAt: now},
		{UserID: "u", Type: wallet.EntryTypeRelease, Currency: "INR", Amount: 200, CreatedAt: now},
		{UserID: "u", Type: wallet.EntryTypeDebit, Currency: "INR", Amount: -50, Reference: "CA1", CreatedAt: now},
		{UserID: "u", Type: wallet.EntryTypeRefund, Currency: "INR", Amount: 30, CreatedAt: now},
		{UserID: "u", Type: wallet.EntryTypeCredit, Currency: "INR", Amount: 25, Reference: "admin_manual_credit", CreatedAt: now},
	}

	out, err := NewService(repo).SpendSummary(context.Background(), SummaryRequest{UserID: "u", Range: window()})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.NetSpendMinor != 320 {
		t.Fatalf("expected net spend 320, got %d", out.NetSpendMinor)
	}
	if out.CreditMinor != 1025 || out.AdminAdjustMinor != 25 || out.Currency != "INR" {
		t.Fatalf("unexpected credits: %+v", out)
	}
}

func TestReporting_SummaryCombinesSections(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Campaigns = []campaigns.Campaign{
		{UserID: "u", Type: providers.ChannelSMS, Status: campaigns.StatusCompleted, Stats: campaigns.Stats{Sent: 4, Delivered: 2, Cost: 100}, CreatedAt: now},
		{UserID: "u", Type: providers.ChannelVoice, Status: campaigns.StatusFailed, Stats: campaigns.Stats{Failed: 3}, CreatedAt: now},
	}
	out, err := NewService(repo).Summary(context.Background(), SummaryRequest{UserID: "u", Range: window()})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	c := out.Campaigns
	if c.TotalCampaigns != 2 || c.ByChannel["sms"] != 1 || c.ByStatus["failed"] != 1 {
		t.Fatalf("unexpected campaign breakdown: %+v", c)
	}
	if c.MessagesSent != 4 || c.MessagesFailed != 3 || c.DeliveryRate != 0.5 || c.CostMinor != 100 {
		t.Fatalf("unexpected message totals: %+v", c)
	}
	if out.Spend.Currency != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN currency with no ledger rows, got %q", out.Spend.Currency)
	}
}

func TestReporting_RejectsBadRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.Summary(context.Background(), SummaryRequest{UserID: "u", Range: TimeRange{From: now, To: now}})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := svc.Summary(context.Background(), SummaryRequest{Range: window()}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest without user")
	}
}
