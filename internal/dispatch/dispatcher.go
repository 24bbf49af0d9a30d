package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/contacts"
	"brandbuzz/internal/events"
	"brandbuzz/internal/pricing"
	"brandbuzz/internal/providers"
	"brandbuzz/internal/wallet"
	"brandbuzz/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNoRecipients      = errors.New("no recipients with a valid address for this channel")
	ErrInsufficientFunds = errors.New("insufficient balance for this campaign")
	ErrBusy              = errors.New("another campaign is already being sent")
	ErrChannelDisabled   = errors.New("channel is not configured")
)

// RecipientResolver turns contact ids or a group into addresses.
// contacts.Service satisfies it.
type RecipientResolver interface {
	Resolve(ctx context.Context, userID string, ids []string, group string, ch providers.Channel) ([]contacts.Recipient, error)
}

// Pricer is the part of pricing.Service the dispatcher needs.
type Pricer interface {
	UnitPrice(ch providers.Channel) (int64, error)
	Policy(ch providers.Channel) pricing.ChargePolicy
	Estimate(ch providers.Channel, recipients int) (int64, error)
	Charge(ch providers.Channel, attempted, succeeded int) (int64, error)
}

// Ledger reserves and settles campaign charges. wallet.Service satisfies it.
type Ledger interface {
	Hold(ctx context.Context, userID string, req wallet.PostRequest) (wallet.Transaction, error)
	Release(ctx context.Context, userID string, req wallet.PostRequest) (wallet.Transaction, error)
}

// Recorder persists a dispatched campaign with its logs.
// campaigns.Service satisfies it.
type Recorder interface {
	Record(ctx context.Context, c *campaigns.Campaign, logs []*campaigns.MessageLog) error
}

// CallRegistrar creates call records for placed voice calls so status
// callbacks can find them. calls.Service satisfies it.
type CallRegistrar interface {
	RegisterOutbound(ctx context.Context, userID, campaignID, sid, from, to string) error
	SyncDelivery(ctx context.Context, sid string) error
}

type Request struct {
	UserID     string            `json:"userId"`
	Channel    providers.Channel `json:"-"`
	Name       string            `json:"name"`
	Recipients []string          `json:"recipients"`
	Group      string            `json:"group"`
	Message    string            `json:"message"`
	Subject    string            `json:"subject"`
	AudioURL   string            `json:"audioUrl"`
}

// RecipientResult is the outcome of one send.
type RecipientResult struct {
	ContactID  string `json:"contactId"`
	Address    string `json:"address"`
	Success    bool   `json:"success"`
	ProviderID string `json:"providerId,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Result struct {
	Success    bool              `json:"success"`
	CampaignID string            `json:"campaignId"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
	Cost       int64             `json:"cost"`
	Results    []RecipientResult `json:"results"`
}

// Dispatcher fans one campaign out through a provider adapter and settles
// its cost.
//
// Money flow: the estimate is held before the first send, the unused part
// is released once the actual charge is known. Both postings carry
// idempotency keys derived from the campaign id.
type Dispatcher struct {
	contacts  RecipientResolver
	adapters  *providers.Registry
	pricer    Pricer
	ledger    Ledger
	campaigns Recorder
	calls     CallRegistrar
	limiter   Limiter
	events    events.Publisher
	clock     func() time.Time
}

type Deps struct {
	Contacts  RecipientResolver
	Adapters  *providers.Registry
	Pricer    Pricer
	Ledger    Ledger
	Campaigns Recorder
	Calls     CallRegistrar
	Limiter   Limiter
	Events    events.Publisher
}

func New(d Deps) *Dispatcher {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return &Dispatcher{
		contacts:  d.Contacts,
		adapters:  d.Adapters,
		pricer:    d.Pricer,
		ledger:    d.Ledger,
		campaigns: d.Campaigns,
		calls:     d.Calls,
		limiter:   d.Limiter,
		events:    d.Events,
		clock:     time.Now,
	}
}

func (d *Dispatcher) validate(req Request) error {
	if strings.TrimSpace(req.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	if !req.Channel.Valid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidArgument, req.Channel)
	}
	if len(req.Recipients) == 0 && strings.TrimSpace(req.Group) == "" {
		return fmt.Errorf("%w: recipients or group is required", ErrInvalidArgument)
	}
	switch {
	case req.Channel == providers.ChannelVoice:
		if strings.TrimSpace(req.Message) == "" && strings.TrimSpace(req.AudioURL) == "" {
			return fmt.Errorf("%w: message or audioUrl is required", ErrInvalidArgument)
		}
	case strings.TrimSpace(req.Message) == "":
		return fmt.Errorf("%w: message is required", ErrInvalidArgument)
	}
	if req.Channel == providers.ChannelEmail && strings.TrimSpace(req.Subject) == "" {
		return fmt.Errorf("%w: subject is required for email", ErrInvalidArgument)
	}
	return nil
}

// Dispatch sends req to every resolved recipient. Nothing is sent and no
// campaign is written when validation, recipient resolution or the balance
// hold fails.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	if err := d.validate(req); err != nil {
		return Result{}, err
	}
	adapter, ok := d.adapters.Get(req.Channel)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrChannelDisabled, req.Channel)
	}

	recipients, err := d.contacts.Resolve(ctx, req.UserID, req.Recipients, req.Group, req.Channel)
	if errors.Is(err, contacts.ErrInvalidArgument) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err != nil {
		return Result{}, fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		return Result{}, ErrNoRecipients
	}

	estimate, err := d.pricer.Estimate(req.Channel, len(recipients))
	if err != nil {
		return Result{}, fmt.Errorf("estimate: %w", err)
	}
	unit, err := d.pricer.UnitPrice(req.Channel)
	if err != nil {
		return Result{}, fmt.Errorf("unit price: %w", err)
	}

	capKey := "dispatch:" + req.UserID
	if d.limiter != nil {
		acquired, err := d.limiter.Acquire(ctx, capKey)
		if err != nil {
			return Result{}, fmt.Errorf("acquire dispatch slot: %w", err)
		}
		if !acquired {
			return Result{}, ErrBusy
		}
		defer func() {
			if err := d.limiter.Release(context.WithoutCancel(ctx), capKey); err != nil {
				logger.From(ctx).Warn("dispatch slot release failed", "user_id", req.UserID, "err", err)
			}
		}()
	}

	campaignID := primitive.NewObjectID()
	cid := campaignID.Hex()
	log := logger.From(ctx).With("campaign_id", cid, "channel", string(req.Channel))

	if estimate > 0 {
		_, err := d.ledger.Hold(ctx, req.UserID, wallet.PostRequest{
			Amount:         estimate,
			Description:    fmt.Sprintf("Hold for %s campaign (%d recipients)", req.Channel, len(recipients)),
			CampaignID:     cid,
			IdempotencyKey: "campaign-hold:" + cid,
		})
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return Result{}, ErrInsufficientFunds
		}
		if err != nil {
			return Result{}, fmt.Errorf("hold estimate: %w", err)
		}
	}

	// Once money is held the campaign runs to completion, even if the
	// client goes away.
	ctx = context.WithoutCancel(ctx)

	policy := d.pricer.Policy(req.Channel)
	ref := uuid.NewString()
	res := Result{CampaignID: cid, Results: make([]RecipientResult, 0, len(recipients))}
	logs := make([]*campaigns.MessageLog, 0, len(recipients))
	var placedCalls []string

	for _, r := range recipients {
		msg := providers.Message{
			To:        r.Address,
			Name:      r.Name,
			Body:      providers.Render(req.Message, map[string]string{"name": r.Name}),
			Subject:   providers.Render(req.Subject, map[string]string{"name": r.Name}),
			AudioURL:  req.AudioURL,
			Reference: ref,
		}
		sent, sendErr := adapter.Send(ctx, msg)

		now := d.clock().UTC()
		ml := &campaigns.MessageLog{
			UserID:    req.UserID,
			ContactID: r.ContactID,
			Channel:   req.Channel,
			Address:   r.Address,
			CreatedAt: now,
			UpdatedAt: now,
		}
		rr := RecipientResult{ContactID: r.ContactID, Address: r.Address}
		if sendErr != nil {
			res.Failed++
			ml.Status = campaigns.LogStatusFailed
			ml.Error = sendErr.Error()
			if policy == pricing.ChargeAttempted {
				ml.Cost = unit
			}
			rr.Error = sendErr.Error()
			log.Warn("send failed", "contact_id", r.ContactID, "err", sendErr)
		} else {
			res.Sent++
			ml.Status = campaigns.LogStatusSent
			ml.ProviderID = sent.ProviderID
			ml.Cost = unit
			rr.Success = true
			rr.ProviderID = sent.ProviderID
			if req.Channel == providers.ChannelVoice && d.calls != nil && sent.ProviderID != "" {
				// Status callbacks can arrive before the loop ends.
				if err := d.calls.RegisterOutbound(ctx, req.UserID, cid, sent.ProviderID, "", r.Address); err != nil {
					log.Error("call record insert failed", "call_sid", sent.ProviderID, "err", err)
				} else {
					placedCalls = append(placedCalls, sent.ProviderID)
				}
			}
		}
		logs = append(logs, ml)
		res.Results = append(res.Results, rr)
	}

	cost, err := d.pricer.Charge(req.Channel, len(logs), res.Sent)
	if err != nil {
		// Settling falls back to the estimate so the hold never leaks.
		log.Error("charge computation failed", "err", err)
		cost = estimate
	}
	res.Cost = cost
	d.release(ctx, req.UserID, cid, estimate-cost)

	now := d.clock().UTC()
	c := &campaigns.Campaign{
		ID:             campaignID,
		UserID:         req.UserID,
		Name:           campaignName(req, now),
		Type:           req.Channel,
		Message:        req.Message,
		Subject:        req.Subject,
		AudioURL:       req.AudioURL,
		Recipients:     recipients,
		RecipientCount: len(logs),
		Stats:          campaigns.Stats{Sent: res.Sent, Failed: res.Failed, Cost: cost},
		Status:         campaigns.StatusFor(res.Sent, res.Failed),
		CreatedAt:      now,
		UpdatedAt:      now,
		CompletedAt:    &now,
	}
	if err := d.campaigns.Record(ctx, c, logs); err != nil {
		return res, fmt.Errorf("record campaign: %w", err)
	}

	// Calls that finished while the campaign was still sending had no log
	// to settle yet.
	for _, sid := range placedCalls {
		if err := d.calls.SyncDelivery(ctx, sid); err != nil {
			log.Error("call delivery sync failed", "call_sid", sid, "err", err)
		}
	}

	res.Success = res.Sent > 0
	if err := d.events.Publish(ctx, events.SubjectCampaignDispatched, map[string]any{
		"userId":     req.UserID,
		"campaignId": cid,
		"channel":    req.Channel,
		"sent":       res.Sent,
		"failed":     res.Failed,
		"cost":       cost,
	}); err != nil {
		log.Warn("campaign event publish failed", "err", err)
	}
	log.Info("campaign dispatched", "sent", res.Sent, "failed", res.Failed, "cost", cost)
	return res, nil
}

func (d *Dispatcher) release(ctx context.Context, userID, campaignID string, amount int64) {
	if amount <= 0 {
		return
	}
	_, err := d.ledger.Release(ctx, userID, wallet.PostRequest{
		Amount:         amount,
		Description:    "Release of unused campaign hold",
		CampaignID:     campaignID,
		IdempotencyKey: "campaign-release:" + campaignID,
	})
	if err != nil {
		logger.From(ctx).Error("hold release failed", "campaign_id", campaignID, "amount", amount, "err", err)
	}
}

func campaignName(req Request, at time.Time) string {
	if n := strings.TrimSpace(req.Name); n != "" {
		return n
	}
	return fmt.Sprintf("%s campaign %s", strings.ToUpper(string(req.Channel)), at.Format("2006-01-02 15:04"))
}
