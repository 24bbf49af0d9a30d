package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory Repository for tests. Balance updates are
// serialized by a mutex, matching the atomicity of the Mongo conditional
// update.
type MemoryRepo struct {
	mu       sync.Mutex
	balances map[string]int64
	txs      []Transaction
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{balances: map[string]int64{}}
}

// Seed registers a user with an opening balance.
func (r *MemoryRepo) Seed(userID string, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = balance
}

func (r *MemoryRepo) Balance(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepo) DecrementIfSufficient(ctx context.Context, userID string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if b < amount {
		return 0, ErrInsufficientFunds
	}
	r.balances[userID] = b - amount
	return b - amount, nil
}

func (r *MemoryRepo) Increment(ctx context.Context, userID string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[userID]
	if !ok {
		return 0, ErrNotFound
	}
	r.balances[userID] = b + amount
	return b + amount, nil
}

func (r *MemoryRepo) InsertTransaction(ctx context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.IdempotencyKey != "" {
		for _, t := range r.txs {
			if t.UserID == tx.UserID && t.IdempotencyKey == tx.IdempotencyKey {
				return ErrDuplicateIdempotencyKey
			}
		}
	}
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *MemoryRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (Transaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txs {
		if t.UserID == userID && t.IdempotencyKey == key {
			return t, true, nil
		}
	}
	return Transaction{}, false, nil
}

func (r *MemoryRepo) ListTransactions(ctx context.Context, userID string, skip, limit int64) ([]Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []Transaction
	for i := len(r.txs) - 1; i >= 0; i-- {
		if r.txs[i].UserID == userID {
			mine = append(mine, r.txs[i])
		}
	}
	total := int64(len(mine))
	if skip >= total {
		return []Transaction{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return mine[skip:end], total, nil
}

func (r *MemoryRepo) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transaction, 0)
	for _, t := range r.txs {
		if t.UserID != userID || t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Transactions returns a copy of all entries, oldest first.
func (r *MemoryRepo) Transactions() []Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transaction, len(r.txs))
	copy(out, r.txs)
	return out
}
