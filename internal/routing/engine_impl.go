package routing

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"brandbuzz/internal/telephony"
	"brandbuzz/internal/users"
	"brandbuzz/internal/wallet"
)

// RoutingEngine evaluates routing for inbound calls to a user's numbers.
//
// Priority:
//  1. Wallet balance: below one minute of voice time goes to voicemail.
//  2. Weighted selection over the owner's forward numbers.
//  3. No forward number: voicemail.
//
// Route returns a decision only. No side effects.
type RoutingEngine struct {
	Wallet wallet.BalanceService
	Owners OwnerLookup

	// MinBalanceMinor is the balance needed to bridge a call, normally the
	// per-minute voice rate.
	MinBalanceMinor int64

	RNG *rand.Rand
	Now func() time.Time
}

// OwnerLookup loads the user that owns the dialled number. users.Service
// satisfies it.
type OwnerLookup interface {
	Get(ctx context.Context, id string) (users.User, error)
}

type RouteInput struct {
	UserID  string
	Inbound telephony.InboundCallRequest
}

func NewRoutingEngine(walletSvc wallet.BalanceService, owners OwnerLookup, minBalance int64, rng *rand.Rand) *RoutingEngine {
	return &RoutingEngine{Wallet: walletSvc, Owners: owners, MinBalanceMinor: minBalance, RNG: rng, Now: time.Now}
}

func (e *RoutingEngine) Route(ctx context.Context, in RouteInput) (Decision, error) {
	if in.UserID == "" {
		return Decision{}, errors.New("routing: user_id required")
	}
	if e.Wallet == nil || e.Owners == nil {
		return Decision{}, errors.New("routing: engine not configured")
	}

	bal, err := e.Wallet.GetBalance(ctx, in.UserID)
	if err != nil {
		return Decision{}, err
	}
	if bal.Balance <= 0 || bal.Balance < e.MinBalanceMinor {
		return Decision{UserID: in.UserID, Action: ActionVoicemail, Reason: "insufficient_balance"}, nil
	}

	owner, err := e.Owners.Get(ctx, in.UserID)
	if err != nil {
		return Decision{}, err
	}
	if dest, ok := e.pickDestination(owner.ForwardNumbers); ok {
		return Decision{UserID: in.UserID, Action: ActionConnect, ConnectTo: dest, Reason: "selected"}, nil
	}
	return Decision{UserID: in.UserID, Action: ActionVoicemail, Reason: "no_forward_number"}, nil
}

func (e *RoutingEngine) pickDestination(dests []users.ForwardNumber) (string, bool) {
	var total int
	for _, d := range dests {
		if d.Weight <= 0 || d.Number == "" {
			continue
		}
		total += d.Weight
	}
	if total <= 0 {
		return "", false
	}

	rng := e.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := rng.Intn(total) // 0..total-1

	var acc int
	for _, d := range dests {
		if d.Weight <= 0 || d.Number == "" {
			continue
		}
		acc += d.Weight
		if r < acc {
			return d.Number, true
		}
	}
	return "", false
}
