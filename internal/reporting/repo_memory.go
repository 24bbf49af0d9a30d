package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/wallet"
)

// MemoryRepo is a simple in-memory reporting repository for tests. It
// enforces user isolation on reads.
type MemoryRepo struct {
	mu sync.Mutex

	Campaigns    []campaigns.Campaign
	Calls        []calls.Call
	Transactions []wallet.Transaction
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func inRange(at, from, to time.Time) bool {
	return !at.Before(from) && at.Before(to)
}

func (r *MemoryRepo) ListCampaigns(ctx context.Context, userID string, from, to time.Time) ([]campaigns.Campaign, error) {
	if userID == "" {
		return nil, errors.New("user_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]campaigns.Campaign, 0)
	for _, c := range r.Campaigns {
		if c.UserID == userID && inRange(c.CreatedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListCalls(ctx context.Context, userID string, from, to time.Time) ([]calls.Call, error) {
	if userID == "" {
		return nil, errors.New("user_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.Call, 0)
	for _, c := range r.Calls {
		if c.UserID == userID && inRange(c.CreatedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]wallet.Transaction, error) {
	if userID == "" {
		return nil, errors.New("user_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wallet.Transaction, 0)
	for _, tx := range r.Transactions {
		if tx.UserID == userID && inRange(tx.CreatedAt, from, to) {
			out = append(out, tx)
		}
	}
	return out, nil
}
