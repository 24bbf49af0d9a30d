package smm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"brandbuzz/internal/events"
	"brandbuzz/internal/pricing"
	"brandbuzz/internal/wallet"
)

type fakePanel struct {
	services     []PanelService
	serviceCalls int
	addErr       error
	status       PanelStatus
}

func (f *fakePanel) Services(ctx context.Context) ([]PanelService, error) {
	f.serviceCalls++
	return f.services, nil
}

func (f *fakePanel) AddOrder(ctx context.Context, service, link string, quantity int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.addErr != nil {
		return "", f.addErr
	}
	return "777", nil
}

func (f *fakePanel) Status(ctx context.Context, orderID string) (PanelStatus, error) {
	return f.status, nil
}

// cancelAfterDebit ends the caller's context once the charge is taken, as a
// client hanging up mid-request would.
type cancelAfterDebit struct {
	Ledger
	cancel context.CancelFunc
}

func (l cancelAfterDebit) Debit(ctx context.Context, userID string, req wallet.PostRequest) (wallet.Transaction, error) {
	tx, err := l.Ledger.Debit(ctx, userID, req)
	l.cancel()
	return tx, err
}

type fixture struct {
	svc    *Service
	panel  *fakePanel
	repo   *MemoryRepo
	wallet *wallet.MemoryRepo
	events *events.Memory
}

func newFixture(t *testing.T, balance int64) fixture {
	t.Helper()
	f := fixture{
		panel: &fakePanel{services: []PanelService{
			{ID: json.Number("1"), Name: "Followers", Rate: json.Number("0.90"), Min: json.Number("50"), Max: json.Number("10000")},
		}},
		repo:   NewMemoryRepo(),
		wallet: wallet.NewMemoryRepo(),
		events: &events.Memory{},
	}
	f.wallet.Seed("u1", balance)
	p := pricing.NewService(pricing.RateCard{Currency: "INR", SMMMarkupPercent: 20})
	f.svc = NewService(f.repo, f.panel, NewMemoryCache(), p, wallet.NewService(f.wallet, "INR", nil), f.events, 0)
	return f
}

func TestPlaceOrderChargesAndStores(t *testing.T) {
	f := newFixture(t, 1000)
	o, err := f.svc.PlaceOrder(context.Background(), "u1", OrderRequest{Service: "1", Link: "https://instagram.com/brandbuzz", Quantity: 1000})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	// 0.90 per 1000 with a 20% markup.
	if o.Cost != 108 || o.PanelOrderID != "777" || o.Status != OrderStatusPending {
		t.Fatalf("unexpected order %+v", o)
	}
	bal, _ := f.wallet.Balance(context.Background(), "u1")
	if bal != 892 {
		t.Fatalf("expected balance 892, got %d", bal)
	}
	if f.repo.Count() != 1 || len(f.events.Events()) != 1 {
		t.Fatalf("expected stored order and one event")
	}
}

func TestPlaceOrderRefundsWhenPanelFails(t *testing.T) {
	f := newFixture(t, 1000)
	f.panel.addErr = errors.Join(ErrPanel, errors.New("Not enough funds on balance"))

	_, err := f.svc.PlaceOrder(context.Background(), "u1", OrderRequest{Service: "1", Link: "https://instagram.com/brandbuzz", Quantity: 1000})
	if !errors.Is(err, ErrPanel) {
		t.Fatalf("expected ErrPanel, got %v", err)
	}
	bal, _ := f.wallet.Balance(context.Background(), "u1")
	if bal != 1000 {
		t.Fatalf("expected refund to restore balance, got %d", bal)
	}
	txs := f.wallet.Transactions()
	if len(txs) != 2 || txs[0].Type != wallet.EntryTypeDebit || txs[1].Type != wallet.EntryTypeRefund {
		t.Fatalf("expected debit then refund, got %+v", txs)
	}
	if f.repo.Count() != 0 {
		t.Fatalf("expected no stored order")
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	cases := []OrderRequest{
		{Service: "1", Link: "not a url", Quantity: 100},
		{Service: "", Link: "https://x.com/a", Quantity: 100},
		{Service: "1", Link: "https://x.com/a", Quantity: 0},
		{Service: "1", Link: "https://x.com/a", Quantity: 10},
	}
	for i, req := range cases {
		if _, err := f.svc.PlaceOrder(ctx, "u1", req); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
	if _, err := f.svc.PlaceOrder(ctx, "u1", OrderRequest{Service: "9", Link: "https://x.com/a", Quantity: 100}); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
	if len(f.wallet.Transactions()) != 0 {
		t.Fatalf("expected no money movement")
	}
}

func TestPlaceOrderInsufficientFunds(t *testing.T) {
	f := newFixture(t, 10)
	_, err := f.svc.PlaceOrder(context.Background(), "u1", OrderRequest{Service: "1", Link: "https://x.com/a", Quantity: 1000})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestServicesAreCached(t *testing.T) {
	f := newFixture(t, 0)
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Services(context.Background()); err != nil {
			t.Fatalf("services: %v", err)
		}
	}
	if f.panel.serviceCalls != 1 {
		t.Fatalf("expected one panel call, got %d", f.panel.serviceCalls)
	}
}

func TestStatusRefreshesOrder(t *testing.T) {
	f := newFixture(t, 1000)
	o, err := f.svc.PlaceOrder(context.Background(), "u1", OrderRequest{Service: "1", Link: "https://x.com/a", Quantity: 100})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	f.panel.status = PanelStatus{Status: "Completed", Remains: json.Number("0"), StartCount: json.Number("3572")}

	got, err := f.svc.Status(context.Background(), "u1", o.ID.Hex())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != OrderStatusCompleted || got.Remains != 0 || got.StartCount != 3572 {
		t.Fatalf("unexpected order %+v", got)
	}
	if _, err := f.svc.Status(context.Background(), "u2", o.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestPlaceOrderCompletesAfterClientCancels(t *testing.T) {
	f := newFixture(t, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.svc.ledger = cancelAfterDebit{Ledger: f.svc.ledger, cancel: cancel}

	o, err := f.svc.PlaceOrder(ctx, "u1", OrderRequest{Service: "1", Link: "https://instagram.com/brandbuzz", Quantity: 1000})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if o.PanelOrderID != "777" || f.repo.Count() != 1 {
		t.Fatalf("expected order placed and stored, got %+v", o)
	}
	bal, _ := f.wallet.Balance(context.Background(), "u1")
	if bal != 892 {
		t.Fatalf("expected balance 892, got %d", bal)
	}
}
