package wallet

import (
	"context"
	"time"
)

// Repository is the persistence contract for balances and the ledger.
//
// Balance mutations must be single atomic conditional updates; callers derive
// the before-snapshot from the returned post-image.
type Repository interface {
	Balance(ctx context.Context, userID string) (int64, error)

	// DecrementIfSufficient subtracts amount only when balance >= amount and
	// returns the balance after the update. It returns ErrInsufficientFunds
	// when the condition fails and ErrNotFound for unknown users.
	DecrementIfSufficient(ctx context.Context, userID string, amount int64) (int64, error)

	// Increment adds amount and returns the balance after the update.
	Increment(ctx context.Context, userID string, amount int64) (int64, error)

	InsertTransaction(ctx context.Context, tx *Transaction) error
	FindByIdempotencyKey(ctx context.Context, userID, key string) (Transaction, bool, error)

	// ListTransactions returns newest-first entries and the total count.
	ListTransactions(ctx context.Context, userID string, skip, limit int64) ([]Transaction, int64, error)
	ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error)
}
