package wallet

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction is an immutable append-only ledger entry.
//
// Money invariants:
//   - Amount is signed minor units: credits are positive, debits are negative.
//   - BalanceAfter == BalanceBefore + Amount, both taken from the same atomic
//     balance update.
//   - No balance change happens without a Transaction.
type Transaction struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID string             `json:"userId" bson:"userId"`

	// Type categorizes the entry. Keep stable.
	Type EntryType `json:"type" bson:"type"`

	Amount        int64  `json:"amount" bson:"amount"`
	BalanceBefore int64  `json:"balanceBefore" bson:"balanceBefore"`
	BalanceAfter  int64  `json:"balanceAfter" bson:"balanceAfter"`
	Currency      string `json:"currency" bson:"currency"`

	Description string `json:"description" bson:"description"`

	// CampaignID links campaign holds/releases; Reference is an external id
	// (call SID, SMM order id, admin reason code).
	CampaignID string `json:"campaignId,omitempty" bson:"campaignId,omitempty"`
	Reference  string `json:"reference,omitempty" bson:"reference,omitempty"`

	// IdempotencyKey makes money-posting operations safe to retry.
	IdempotencyKey string `json:"idempotencyKey,omitempty" bson:"idempotencyKey,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type EntryType string

const (
	EntryTypeCredit  EntryType = "credit"  // top-up, adjustment
	EntryTypeDebit   EntryType = "debit"   // usage charge
	EntryTypeHold    EntryType = "hold"    // reservation of an estimated charge
	EntryTypeRelease EntryType = "release" // unused part of a hold returned
	EntryTypeRefund  EntryType = "refund"  // charge returned after a failed fulfilment
)

// Balance is the current wallet state for a user.
type Balance struct {
	UserID   string `json:"userId"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

// Actor identifies who performed a privileged money operation.
type Actor struct {
	UserID string
	Role   string
	IP     string
}
