package calls

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandbuzz/internal/events"
	"brandbuzz/internal/pricing"
	"brandbuzz/internal/providers"
	"brandbuzz/internal/telephony"
	"brandbuzz/internal/wallet"
)

type fakeDelivery struct {
	calls []string
}

func (f *fakeDelivery) ApplyDeliveryStatus(ctx context.Context, providerID, status, reason string) error {
	f.calls = append(f.calls, providerID+":"+status)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *MemoryRepo
	wallet   *wallet.MemoryRepo
	delivery *fakeDelivery
	events   *events.Memory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	p := pricing.NewService(pricing.RateCard{
		Currency: "INR",
		Channels: map[providers.Channel]pricing.ChannelRate{
			providers.ChannelVoice: {UnitMinor: 100, Policy: pricing.ChargeSucceeded},
		},
		VoiceMinuteMinor: 100,
	})
	wr := wallet.NewMemoryRepo()
	wr.Seed("u1", 10_000)
	f := fixture{
		repo:     NewMemoryRepo(),
		wallet:   wr,
		delivery: &fakeDelivery{},
		events:   &events.Memory{},
	}
	f.svc = NewService(f.repo, p, wallet.NewService(wr, "INR", nil), f.delivery, f.events)
	return f
}

func completed(sid string, seq, duration int) telephony.StatusCallback {
	return telephony.StatusCallback{
		CallSid:        sid,
		CallStatus:     "completed",
		CallDuration:   duration,
		HasDuration:    true,
		SequenceNumber: seq,
		Timestamp:      time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestApplyStatusPricesOutboundCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.svc.RegisterOutbound(ctx, "u1", "camp1", "CA1", "+911111111111", "+919876543210"); err != nil {
		t.Fatalf("register: %v", err)
	}

	c, err := f.svc.ApplyStatus(ctx, completed("CA1", 3, 125))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Status != CallStatusCompleted || c.DurationSeconds != 125 {
		t.Fatalf("unexpected call %+v", c)
	}
	// 125s bills as 3 minutes.
	if c.Cost != 300 {
		t.Fatalf("expected cost 300, got %d", c.Cost)
	}
	if c.EndedAt == nil {
		t.Fatalf("expected ended timestamp")
	}

	txs := f.wallet.Transactions()
	if len(txs) != 1 || txs[0].Amount != -200 || txs[0].IdempotencyKey != "call-overage:CA1" {
		t.Fatalf("expected one overage debit of 200, got %+v", txs)
	}
	if len(f.delivery.calls) != 1 || f.delivery.calls[0] != "CA1:completed" {
		t.Fatalf("expected delivery update, got %v", f.delivery.calls)
	}
	if len(f.events.Events()) != 1 {
		t.Fatalf("expected one call.status event, got %d", len(f.events.Events()))
	}
}

func TestDuplicateStatusCallbackIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.RegisterOutbound(ctx, "u1", "camp1", "CA1", "", "+919876543210")

	if _, err := f.svc.ApplyStatus(ctx, completed("CA1", 3, 125)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, err := f.svc.ApplyStatus(ctx, completed("CA1", 3, 125))
	if !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected ErrStaleEvent, got %v", err)
	}

	c, _ := f.repo.FindBySid(ctx, "CA1")
	if c.Cost != 300 {
		t.Fatalf("expected cost to stay 300, got %d", c.Cost)
	}
	if len(f.wallet.Transactions()) != 1 {
		t.Fatalf("expected a single overage debit, got %d", len(f.wallet.Transactions()))
	}
}

func TestOutOfOrderCallbackDoesNotRegressStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.RegisterOutbound(ctx, "u1", "", "CA2", "", "+919876543210")

	if _, err := f.svc.ApplyStatus(ctx, completed("CA2", 4, 30)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	ringing := telephony.StatusCallback{CallSid: "CA2", CallStatus: "ringing", SequenceNumber: 1}
	if _, err := f.svc.ApplyStatus(ctx, ringing); !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected stale ringing callback, got %v", err)
	}
	c, _ := f.repo.FindBySid(ctx, "CA2")
	if c.Status != CallStatusCompleted {
		t.Fatalf("expected status to stay completed, got %s", c.Status)
	}
	// Within the flat per-call price: no overage.
	if len(f.wallet.Transactions()) != 0 {
		t.Fatalf("expected no overage debit, got %+v", f.wallet.Transactions())
	}
	if len(f.delivery.calls) != 0 {
		t.Fatalf("expected no delivery update without a campaign")
	}
}

func TestInboundCallIsNotPriced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := telephony.InboundCallRequest{UserID: "u1", CallSid: "CA3", From: "+919000000000", To: "+911111111111"}
	res := telephony.InboundCallResult{Action: telephony.InboundCallActionVoicemail}
	if err := f.svc.RecordInbound(ctx, req, res); err != nil {
		t.Fatalf("record inbound: %v", err)
	}
	c, err := f.svc.ApplyStatus(ctx, completed("CA3", 2, 200))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Cost != 0 || c.Direction != DirectionInbound || c.Action != "voicemail" {
		t.Fatalf("unexpected inbound call %+v", c)
	}
}

func TestApplyStatusValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.ApplyStatus(ctx, telephony.StatusCallback{CallStatus: "completed"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without sid, got %v", err)
	}
	if _, err := f.svc.ApplyStatus(ctx, telephony.StatusCallback{CallSid: "CA1", CallStatus: "exploded"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for unknown status, got %v", err)
	}
	if _, err := f.svc.ApplyStatus(ctx, telephony.StatusCallback{CallSid: "nope", CallStatus: "ringing", SequenceNumber: -1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordingAndTranscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.RecordInbound(ctx, telephony.InboundCallRequest{UserID: "u1", CallSid: "CA4"}, telephony.InboundCallResult{Action: telephony.InboundCallActionVoicemail})

	c, err := f.svc.ApplyRecording(ctx, telephony.RecordingCallback{
		CallSid: "CA4", RecordingSid: "RE1", RecordingURL: "https://api.twilio.com/rec/RE1", RecordingDuration: 12,
	})
	if err != nil {
		t.Fatalf("recording: %v", err)
	}
	if c.RecordingURL == "" {
		t.Fatalf("expected recording url on call")
	}

	c, err = f.svc.ApplyTranscription(ctx, telephony.TranscriptionCallback{
		CallSid: "CA4", RecordingSid: "RE1", TranscriptionSid: "TR1", TranscriptionText: "call me back", TranscriptionStatus: "completed",
	})
	if err != nil {
		t.Fatalf("transcription: %v", err)
	}
	if c.TranscriptionText != "call me back" {
		t.Fatalf("unexpected transcription %q", c.TranscriptionText)
	}
	rec, ok := f.repo.Recording("RE1")
	if !ok || rec.TranscriptionSid != "TR1" || rec.DurationSeconds != 12 || rec.UserID != "u1" {
		t.Fatalf("unexpected recording %+v", rec)
	}
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, sid := range []string{"CA1", "CA2", "CA3"} {
		_ = f.svc.RegisterOutbound(ctx, "u1", "", sid, "", "+919876543210")
	}
	p, err := f.svc.List(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if p.Total != 3 || len(p.Calls) != 2 || p.TotalPages != 2 {
		t.Fatalf("unexpected page %+v", p)
	}
}

func TestSyncDeliveryMirrorsOnlyFinishedCampaignCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.RegisterOutbound(ctx, "u1", "camp1", "CA1", "", "+919876543210")
	_ = f.svc.RegisterOutbound(ctx, "u1", "camp1", "CA2", "", "+919876543211")
	_ = f.svc.RegisterOutbound(ctx, "u1", "", "CA3", "", "+919876543212")

	if _, err := f.svc.ApplyStatus(ctx, completed("CA1", 1, 30)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.ApplyStatus(ctx, completed("CA3", 1, 30)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	f.delivery.calls = nil

	for _, sid := range []string{"CA1", "CA2", "CA3"} {
		if err := f.svc.SyncDelivery(ctx, sid); err != nil {
			t.Fatalf("sync %s: %v", sid, err)
		}
	}
	if len(f.delivery.calls) != 1 || f.delivery.calls[0] != "CA1:completed" {
		t.Fatalf("expected only CA1 mirrored, got %v", f.delivery.calls)
	}
	if err := f.svc.SyncDelivery(ctx, "CA9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
