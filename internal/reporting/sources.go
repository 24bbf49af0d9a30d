package reporting

import (
	"context"
	"time"

	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/wallet"
)

// Sources reads report rows through the owning services so reporting never
// touches their collections directly.
type Sources struct {
	Campaigns *campaigns.Service
	Calls     *calls.Service
	Wallet    *wallet.Service
}

func (s Sources) ListCampaigns(ctx context.Context, userID string, from, to time.Time) ([]campaigns.Campaign, error) {
	return s.Campaigns.Between(ctx, userID, from, to)
}

func (s Sources) ListCalls(ctx context.Context, userID string, from, to time.Time) ([]calls.Call, error) {
	return s.Calls.Between(ctx, userID, from, to)
}

func (s Sources) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]wallet.Transaction, error) {
	return s.Wallet.TransactionsBetween(ctx, userID, from, to)
}
