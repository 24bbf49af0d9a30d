package campaigns

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("campaign not found")
	ErrNotEditable = errors.New("campaign is not a draft")
)

type Filter struct {
	UserID string
	Type   string
	Status string
	Skip   int64
	Limit  int64
}

// DraftPatch holds the editable fields of a draft; nil means unchanged.
type DraftPatch struct {
	Name     *string `json:"name"`
	Message  *string `json:"message"`
	Subject  *string `json:"subject"`
	AudioURL *string `json:"audioUrl"`
}

// Repository is the persistence contract for campaigns and their logs.
// Campaign lookups are scoped by owner.
type Repository interface {
	Insert(ctx context.Context, c *Campaign) error
	InsertLogs(ctx context.Context, logs []*MessageLog) error
	FindByID(ctx context.Context, userID, id string) (Campaign, error)
	List(ctx context.Context, f Filter) ([]Campaign, int64, error)
	ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Campaign, error)
	UpdateDraft(ctx context.Context, userID, id string, p DraftPatch) (Campaign, error)

	// Delete removes the campaign and its logs and reports how many logs went.
	Delete(ctx context.Context, userID, id string) (int64, error)

	CountLogsByStatus(ctx context.Context, campaignID string) (map[LogStatus]int64, error)
	ListLogs(ctx context.Context, campaignID string, skip, limit int64) ([]MessageLog, int64, error)

	// MarkLogDelivered moves a sent log to delivered. It reports false when no
	// log changed, so repeated delivery receipts are counted once.
	MarkLogDelivered(ctx context.Context, providerID string) (MessageLog, bool, error)
	MarkLogUndelivered(ctx context.Context, providerID, reason string) (MessageLog, bool, error)
	IncDelivered(ctx context.Context, campaignID string, n int) error
}
