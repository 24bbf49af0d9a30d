package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brandbuzz/internal/providers"
	"brandbuzz/pkg/logger"
	"brandbuzz/pkg/utils"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Auditor records user-initiated campaign removals. audit.Service satisfies it.
type Auditor interface {
	LogCampaignDeleted(ctx context.Context, userID, campaignID string, logsRemoved int64) error
}

type Service struct {
	repo  Repository
	audit Auditor
	clock func() time.Time
}

func NewService(repo Repository, audit Auditor) *Service {
	return &Service{repo: repo, audit: audit, clock: time.Now}
}

type DraftInput struct {
	Name     string            `json:"name"`
	Type     providers.Channel `json:"type"`
	Message  string            `json:"message"`
	Subject  string            `json:"subject"`
	AudioURL string            `json:"audioUrl"`
}

// CreateDraft stores a campaign that has not been sent.
func (s *Service) CreateDraft(ctx context.Context, userID string, in DraftInput) (Campaign, error) {
	if userID == "" {
		return Campaign{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Campaign{}, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if !in.Type.Valid() {
		return Campaign{}, fmt.Errorf("%w: unknown campaign type %q", ErrInvalidArgument, in.Type)
	}
	now := s.clock().UTC()
	c := Campaign{
		UserID:     userID,
		Name:       name,
		Type:       in.Type,
		Message:    in.Message,
		Subject:    in.Subject,
		AudioURL:   in.AudioURL,
		Recipients: nil,
		Status:     StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, &c); err != nil {
		return Campaign{}, fmt.Errorf("insert campaign: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateDraft(ctx context.Context, userID, id string, p DraftPatch) (Campaign, error) {
	if userID == "" || id == "" {
		return Campaign{}, fmt.Errorf("%w: id and userId are required", ErrInvalidArgument)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Campaign{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}
	return s.repo.UpdateDraft(ctx, userID, id, p)
}

// Record persists a dispatched campaign and one log per attempted recipient.
// If the logs cannot be written the campaign is removed again so that no
// campaign exists without its logs.
func (s *Service) Record(ctx context.Context, c *Campaign, logs []*MessageLog) error {
	if c.RecipientCount != len(logs) {
		return fmt.Errorf("%w: %d recipients but %d logs", ErrInvalidArgument, c.RecipientCount, len(logs))
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	id := c.ID.Hex()
	for _, l := range logs {
		l.CampaignID = id
	}
	if err := s.repo.InsertLogs(ctx, logs); err != nil {
		if _, derr := s.repo.Delete(ctx, c.UserID, id); derr != nil {
			logger.From(ctx).Error("campaign rollback failed", "campaign_id", id, "err", derr)
		}
		return fmt.Errorf("insert message logs: %w", err)
	}
	return nil
}

type ListQuery struct {
	UserID string
	Type   string
	Status string
	Page   int
	Limit  int
}

type Page struct {
	Campaigns  []Campaign `json:"campaigns"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
}

func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	if q.UserID == "" {
		return Page{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	skip, size, page, limit := utils.Page(q.Page, q.Limit)
	cs, total, err := s.repo.List(ctx, Filter{UserID: q.UserID, Type: q.Type, Status: q.Status, Skip: skip, Limit: size})
	if err != nil {
		return Page{}, err
	}
	return Page{Campaigns: cs, Page: page, Limit: limit, Total: total, TotalPages: utils.TotalPages(total, limit)}, nil
}

// Detail is a campaign with its per-status log counts.
type Detail struct {
	Campaign Campaign            `json:"campaign"`
	LogStats map[LogStatus]int64 `json:"logStats"`
}

func (s *Service) Get(ctx context.Context, userID, id string) (Detail, error) {
	if userID == "" || id == "" {
		return Detail{}, fmt.Errorf("%w: id and userId are required", ErrInvalidArgument)
	}
	c, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return Detail{}, err
	}
	stats, err := s.repo.CountLogsByStatus(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Campaign: c, LogStats: stats}, nil
}

// LogPage is one page of a campaign's message logs.
type LogPage struct {
	Logs       []MessageLog `json:"logs"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"totalPages"`
}

func (s *Service) Logs(ctx context.Context, userID, id string, page, limit int) (LogPage, error) {
	if _, err := s.repo.FindByID(ctx, userID, id); err != nil {
		return LogPage{}, err
	}
	skip, size, page, limit := utils.Page(page, limit)
	logs, total, err := s.repo.ListLogs(ctx, id, skip, size)
	if err != nil {
		return LogPage{}, err
	}
	return LogPage{Logs: logs, Page: page, Limit: limit, Total: total, TotalPages: utils.TotalPages(total, limit)}, nil
}

// Delete removes a campaign with its logs and audits the removal.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return fmt.Errorf("%w: id and userId are required", ErrInvalidArgument)
	}
	removed, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.LogCampaignDeleted(ctx, userID, id, removed); err != nil {
			logger.From(ctx).Error("audit campaign deletion failed", "campaign_id", id, "err", err)
		}
	}
	return nil
}

func (s *Service) Between(ctx context.Context, userID string, from, to time.Time) ([]Campaign, error) {
	return s.repo.ListBetween(ctx, userID, from, to)
}

// ApplyDeliveryStatus records a provider delivery receipt for a sent message.
// Receipts for unknown or already-settled messages are ignored.
func (s *Service) ApplyDeliveryStatus(ctx context.Context, providerID, status, reason string) error {
	switch strings.ToLower(status) {
	case "delivered", "read", "completed":
		l, changed, err := s.repo.MarkLogDelivered(ctx, providerID)
		if err != nil || !changed {
			return err
		}
		return s.repo.IncDelivered(ctx, l.CampaignID, 1)
	case "undelivered", "failed", "busy", "no-answer", "canceled":
		_, _, err := s.repo.MarkLogUndelivered(ctx, providerID, strings.TrimSpace(status+" "+reason))
		return err
	default:
		return nil
	}
}
