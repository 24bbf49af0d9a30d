package audit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e *Event) error
}

// Service logs internal audit information. Callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.UserID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, &e)
}

// LogAdminCredit records a manual wallet credit performed by an admin.
func (s *Service) LogAdminCredit(ctx context.Context, userID, actorUserID, actorRole, ip, transactionID, message string) error {
	return s.Append(ctx, Event{
		UserID:        userID,
		Type:          EventTypeAdminCredit,
		ActorUserID:   actorUserID,
		ActorRole:     actorRole,
		IPAddress:     ip,
		TransactionID: transactionID,
		Message:       message,
	})
}

// LogCampaignDeleted records a user-initiated campaign removal.
func (s *Service) LogCampaignDeleted(ctx context.Context, userID, campaignID string, logsRemoved int64) error {
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        EventTypeCampaignDeleted,
		ActorUserID: userID,
		CampaignID:  campaignID,
		Message:     fmt.Sprintf("campaign deleted with %d message logs", logsRemoved),
	})
}

// LogContactDeleted records a contact soft delete.
func (s *Service) LogContactDeleted(ctx context.Context, userID, contactID string) error {
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        EventTypeContactDeleted,
		ActorUserID: userID,
		ContactID:   contactID,
		Message:     "contact soft-deleted",
	})
}
