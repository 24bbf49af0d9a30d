package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brandbuzz/pkg/logger"
)

// Service provides wallet operations.
//
// Money invariants:
//   - No balance updates without a ledger entry.
//   - The ledger is append-only.
//   - Debits are a single conditional update (balance >= amount), never a
//     read followed by a write.
type Service struct {
	repo     Repository
	audit    Auditor
	currency string
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

// Auditor records privileged money operations. audit.Service satisfies it.
type Auditor interface {
	LogAdminCredit(ctx context.Context, userID, actorUserID, actorRole, ip, transactionID, message string) error
}

func NewService(repo Repository, currency string, audit Auditor) *Service {
	return &Service{repo: repo, audit: audit, currency: currency, clock: time.Now}
}

// PostRequest describes one money movement. Amount is always positive; the
// entry type decides the sign.
type PostRequest struct {
	Amount         int64  `json:"amount"`
	Description    string `json:"description"`
	CampaignID     string `json:"campaignId,omitempty"`
	Reference      string `json:"reference,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

type AdminCreditRequest struct {
	Amount         int64  `json:"amount"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// History is one page of ledger entries.
type History struct {
	Balance      Balance       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
}

var (
	ErrNotFound                = errors.New("wallet not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

func (s *Service) GetBalance(ctx context.Context, userID string) (Balance, error) {
	if userID == "" {
		return Balance{}, ErrInvalidArgument
	}
	b, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{UserID: userID, Currency: s.currency, Balance: b}, nil
}

// Credit adds funds (top-up).
func (s *Service) Credit(ctx context.Context, userID string, req PostRequest) (Transaction, error) {
	return s.post(ctx, userID, EntryTypeCredit, req)
}

// Debit charges funds. It fails with ErrInsufficientFunds without moving money
// when the balance does not cover the amount.
func (s *Service) Debit(ctx context.Context, userID string, req PostRequest) (Transaction, error) {
	return s.post(ctx, userID, EntryTypeDebit, req)
}

// Hold reserves an estimated charge before work starts.
func (s *Service) Hold(ctx context.Context, userID string, req PostRequest) (Transaction, error) {
	return s.post(ctx, userID, EntryTypeHold, req)
}

// Release returns the unused part of a hold.
func (s *Service) Release(ctx context.Context, userID string, req PostRequest) (Transaction, error) {
	return s.post(ctx, userID, EntryTypeRelease, req)
}

// Refund returns a charge whose fulfilment failed.
func (s *Service) Refund(ctx context.Context, userID string, req PostRequest) (Transaction, error) {
	return s.post(ctx, userID, EntryTypeRefund, req)
}

// History returns the balance and one page of transactions, newest first.
func (s *Service) History(ctx context.Context, userID string, skip, limit int64) (History, error) {
	bal, err := s.GetBalance(ctx, userID)
	if err != nil {
		return History{}, err
	}
	txs, total, err := s.repo.ListTransactions(ctx, userID, skip, limit)
	if err != nil {
		return History{}, err
	}
	return History{Balance: bal, Transactions: txs, Total: total}, nil
}

// TransactionsBetween lists ledger entries in [from, to).
func (s *Service) TransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListTransactionsBetween(ctx, userID, from, to)
}

// AdminManualCredit credits a user on behalf of an admin and audits it.
func (s *Service) AdminManualCredit(ctx context.Context, userID string, actor Actor, req AdminCreditRequest) (Transaction, error) {
	if actor.UserID == "" || actor.Role == "" {
		return Transaction{}, ErrInvalidArgument
	}
	if strings.TrimSpace(req.Reason) == "" || req.IdempotencyKey == "" {
		return Transaction{}, ErrInvalidArgument
	}

	tx, err := s.post(ctx, userID, EntryTypeCredit, PostRequest{
		Amount:         req.Amount,
		Description:    "Manual credit: " + req.Reason,
		Reference:      "admin_manual_credit",
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return Transaction{}, err
	}

	if s.audit != nil {
		msg := fmt.Sprintf("manual credit of %d %s: %s", req.Amount, s.currency, req.Reason)
		if err := s.audit.LogAdminCredit(ctx, userID, actor.UserID, actor.Role, actor.IP, tx.ID.Hex(), msg); err != nil {
			// Audit is best-effort; the credit already happened.
			logger.From(ctx).Warn("admin credit audit failed", "user_id", userID, "err", err)
		}
	}
	return tx, nil
}

func (s *Service) post(ctx context.Context, userID string, typ EntryType, req PostRequest) (Transaction, error) {
	if err := validatePostReq(userID, req); err != nil {
		return Transaction{}, err
	}

	if req.IdempotencyKey != "" {
		existing, ok, err := s.repo.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err != nil {
			return Transaction{}, err
		}
		if ok {
			return existing, nil
		}
	}

	signed := req.Amount
	if typ == EntryTypeDebit || typ == EntryTypeHold {
		signed = -req.Amount
	}

	var after int64
	var err error
	if signed < 0 {
		after, err = s.repo.DecrementIfSufficient(ctx, userID, req.Amount)
	} else {
		after, err = s.repo.Increment(ctx, userID, req.Amount)
	}
	if err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		UserID:         userID,
		Type:           typ,
		Amount:         signed,
		BalanceBefore:  after - signed,
		BalanceAfter:   after,
		Currency:       s.currency,
		Description:    req.Description,
		CampaignID:     req.CampaignID,
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.repo.InsertTransaction(ctx, &tx); err != nil {
		// Undo the balance move so the balance never drifts from the ledger.
		if _, rerr := s.repo.Increment(ctx, userID, -signed); rerr != nil {
			logger.From(ctx).Error("wallet compensation failed", "user_id", userID, "amount", signed, "err", rerr)
		}
		if errors.Is(err, ErrDuplicateIdempotencyKey) {
			if existing, ok, ferr := s.repo.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey); ferr == nil && ok {
				return existing, nil
			}
		}
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

func validatePostReq(userID string, req PostRequest) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	if req.Amount <= 0 {
		return ErrInvalidArgument
	}
	return nil
}
