package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brandbuzz/internal/events"
	"brandbuzz/internal/pricing"
	"brandbuzz/internal/providers"
	"brandbuzz/internal/telephony"
	"brandbuzz/internal/wallet"
	"brandbuzz/pkg/logger"
	"brandbuzz/pkg/utils"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Pricer prices call durations. pricing.Service satisfies it.
type Pricer interface {
	CalculateCallCost(req pricing.CallCostRequest) (pricing.CallCost, error)
	UnitPrice(ch providers.Channel) (int64, error)
}

// Charger debits call overage. wallet.Service satisfies it.
type Charger interface {
	Debit(ctx context.Context, userID string, req wallet.PostRequest) (wallet.Transaction, error)
}

// DeliveryRecorder mirrors call outcomes onto campaign message logs.
type DeliveryRecorder interface {
	ApplyDeliveryStatus(ctx context.Context, providerID, status, reason string) error
}

// Service applies provider callbacks to call records.
type Service struct {
	repo     Repository
	pricer   Pricer
	charger  Charger
	delivery DeliveryRecorder
	events   events.Publisher
	clock    func() time.Time
}

func NewService(repo Repository, pricer Pricer, charger Charger, delivery DeliveryRecorder, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, pricer: pricer, charger: charger, delivery: delivery, events: pub, clock: time.Now}
}

// RegisterOutbound creates the record for a call the dispatcher placed.
func (s *Service) RegisterOutbound(ctx context.Context, userID, campaignID, sid, from, to string) error {
	if userID == "" || sid == "" {
		return fmt.Errorf("%w: userId and call sid are required", ErrInvalidArgument)
	}
	now := s.clock().UTC()
	return s.repo.Insert(ctx, &Call{
		UserID:       userID,
		CampaignID:   campaignID,
		CallSid:      sid,
		Direction:    DirectionOutbound,
		From:         from,
		To:           to,
		Status:       CallStatusQueued,
		LastSequence: -1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// SyncDelivery mirrors a finished call's status onto its campaign message
// log. A call can reach a terminal status before its log is written.
func (s *Service) SyncDelivery(ctx context.Context, sid string) error {
	if s.delivery == nil {
		return nil
	}
	c, err := s.repo.FindBySid(ctx, sid)
	if err != nil {
		return err
	}
	if c.CampaignID == "" || !c.Status.Terminal() {
		return nil
	}
	return s.delivery.ApplyDeliveryStatus(ctx, sid, string(c.Status), "")
}

// RecordInbound stores an inbound call and its routing decision.
func (s *Service) RecordInbound(ctx context.Context, req telephony.InboundCallRequest, res telephony.InboundCallResult) error {
	now := s.clock().UTC()
	err := s.repo.Insert(ctx, &Call{
		UserID:       req.UserID,
		CallSid:      req.CallSid,
		Direction:    DirectionInbound,
		From:         req.From,
		To:           req.To,
		Status:       CallStatusRinging,
		Action:       string(res.Action),
		LastSequence: -1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("insert inbound call: %w", err)
	}
	return nil
}

// ApplyStatus applies a status callback. Stale and duplicate callbacks
// return ErrStaleEvent and change nothing.
func (s *Service) ApplyStatus(ctx context.Context, cb telephony.StatusCallback) (Call, error) {
	if cb.CallSid == "" {
		return Call{}, fmt.Errorf("%w: CallSid is required", ErrInvalidArgument)
	}
	status, ok := ParseStatus(cb.CallStatus)
	if !ok {
		return Call{}, fmt.Errorf("%w: unknown call status %q", ErrInvalidArgument, cb.CallStatus)
	}

	current, err := s.repo.FindBySid(ctx, cb.CallSid)
	if err != nil {
		return Call{}, err
	}

	u := StatusUpdate{Status: status, Sequence: cb.SequenceNumber, At: cb.Timestamp}
	if u.At.IsZero() {
		u.At = s.clock().UTC()
	}
	if cb.HasDuration {
		u.HasDuration = true
		u.DurationSeconds = cb.CallDuration
		if current.Direction == DirectionOutbound {
			cost, err := s.pricer.CalculateCallCost(pricing.CallCostRequest{
				Direction:       pricing.CallDirectionOutbound,
				DurationSeconds: cb.CallDuration,
			})
			if err != nil {
				return Call{}, fmt.Errorf("price call: %w", err)
			}
			u.Cost = cost.TotalMinor
		}
	}

	c, err := s.repo.ApplyStatus(ctx, cb.CallSid, u)
	if err != nil {
		return Call{}, err
	}

	log := logger.From(ctx)
	if status.Terminal() && c.Direction == DirectionOutbound {
		s.chargeOverage(ctx, c)
	}
	if s.delivery != nil && c.CampaignID != "" && status.Terminal() {
		if err := s.delivery.ApplyDeliveryStatus(ctx, c.CallSid, string(status), ""); err != nil {
			log.Error("message log update failed", "call_sid", c.CallSid, "err", err)
		}
	}
	if err := s.events.Publish(ctx, events.SubjectCallStatus, map[string]any{
		"userId":     c.UserID,
		"callSid":    c.CallSid,
		"campaignId": c.CampaignID,
		"status":     c.Status,
		"duration":   c.DurationSeconds,
		"cost":       c.Cost,
	}); err != nil {
		log.Warn("call status event publish failed", "call_sid", c.CallSid, "err", err)
	}
	return c, nil
}

// chargeOverage debits the part of a completed call's cost above the flat
// per-call price charged at dispatch. The idempotency key makes repeated
// completion callbacks charge once.
func (s *Service) chargeOverage(ctx context.Context, c Call) {
	if s.charger == nil || c.Cost <= 0 {
		return
	}
	unit, err := s.pricer.UnitPrice(providers.ChannelVoice)
	if err != nil || c.Cost <= unit {
		return
	}
	_, err = s.charger.Debit(ctx, c.UserID, wallet.PostRequest{
		Amount:         c.Cost - unit,
		Description:    fmt.Sprintf("Voice call overage (%ds)", c.DurationSeconds),
		CampaignID:     c.CampaignID,
		Reference:      c.CallSid,
		IdempotencyKey: "call-overage:" + c.CallSid,
	})
	if err != nil {
		logger.From(ctx).Warn("call overage not charged", "call_sid", c.CallSid, "amount", c.Cost-unit, "err", err)
	}
}

// ApplyRecording stores a finished recording and links it to its call.
func (s *Service) ApplyRecording(ctx context.Context, cb telephony.RecordingCallback) (Call, error) {
	if cb.CallSid == "" || cb.RecordingURL == "" {
		return Call{}, fmt.Errorf("%w: CallSid and RecordingUrl are required", ErrInvalidArgument)
	}
	c, err := s.repo.SetRecording(ctx, cb.CallSid, cb.RecordingURL)
	if err != nil {
		return Call{}, err
	}
	if cb.RecordingSid != "" {
		if err := s.repo.UpsertRecording(ctx, &Recording{
			UserID:          c.UserID,
			CallSid:         c.CallSid,
			RecordingSid:    cb.RecordingSid,
			URL:             cb.RecordingURL,
			DurationSeconds: cb.RecordingDuration,
		}); err != nil {
			return Call{}, fmt.Errorf("upsert recording: %w", err)
		}
	}
	return c, nil
}

// ApplyTranscription stores voicemail text on the call and its recording.
func (s *Service) ApplyTranscription(ctx context.Context, cb telephony.TranscriptionCallback) (Call, error) {
	if cb.CallSid == "" {
		return Call{}, fmt.Errorf("%w: CallSid is required", ErrInvalidArgument)
	}
	c, err := s.repo.SetTranscription(ctx, cb.CallSid, cb.TranscriptionText, cb.TranscriptionStatus)
	if err != nil {
		return Call{}, err
	}
	if cb.RecordingSid != "" {
		err := s.repo.SetRecordingTranscription(ctx, cb.RecordingSid, cb.TranscriptionSid, cb.TranscriptionText, cb.TranscriptionStatus)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Call{}, fmt.Errorf("update recording transcription: %w", err)
		}
	}
	return c, nil
}

type Page struct {
	Calls      []Call `json:"calls"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"totalPages"`
}

func (s *Service) List(ctx context.Context, userID string, page, limit int) (Page, error) {
	if userID == "" {
		return Page{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	skip, size, page, limit := utils.Page(page, limit)
	cs, total, err := s.repo.List(ctx, userID, skip, size)
	if err != nil {
		return Page{}, err
	}
	return Page{Calls: cs, Page: page, Limit: limit, Total: total, TotalPages: utils.TotalPages(total, limit)}, nil
}

func (s *Service) Between(ctx context.Context, userID string, from, to time.Time) ([]Call, error) {
	return s.repo.ListBetween(ctx, userID, from, to)
}
