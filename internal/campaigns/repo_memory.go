package campaigns

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is a simple in-memory repository useful for tests.
type MemoryRepo struct {
	mu        sync.Mutex
	campaigns map[string]Campaign
	logs      []MessageLog

	// FailLogInsert makes InsertLogs fail, for exercising compensation.
	FailLogInsert error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{campaigns: map[string]Campaign{}}
}

func (r *MemoryRepo) Insert(ctx context.Context, c *Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.campaigns[c.ID.Hex()] = *c
	return nil
}

func (r *MemoryRepo) InsertLogs(ctx context.Context, logs []*MessageLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailLogInsert != nil {
		return r.FailLogInsert
	}
	for _, l := range logs {
		if l.ID.IsZero() {
			l.ID = primitive.NewObjectID()
		}
		r.logs = append(r.logs, *l)
	}
	return nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, userID, id string) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.UserID != userID {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Campaign, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []Campaign{}
	for _, c := range r.campaigns {
		if c.UserID != f.UserID {
			continue
		}
		if f.Type != "" && string(c.Type) != f.Type {
			continue
		}
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		c.Recipients = nil
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if f.Skip >= total {
		return []Campaign{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Skip+f.Limit < total {
		end = f.Skip + f.Limit
	}
	return matched[f.Skip:end], total, nil
}

func (r *MemoryRepo) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Campaign{}
	for _, c := range r.campaigns {
		if c.UserID == userID && !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) UpdateDraft(ctx context.Context, userID, id string, p DraftPatch) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.UserID != userID {
		return Campaign{}, ErrNotFound
	}
	if c.Status != StatusDraft {
		return Campaign{}, ErrNotEditable
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Message != nil {
		c.Message = *p.Message
	}
	if p.Subject != nil {
		c.Subject = *p.Subject
	}
	if p.AudioURL != nil {
		c.AudioURL = *p.AudioURL
	}
	c.UpdatedAt = time.Now().UTC()
	r.campaigns[id] = c
	return c, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.UserID != userID {
		return 0, ErrNotFound
	}
	delete(r.campaigns, id)

	kept := r.logs[:0]
	var removed int64
	for _, l := range r.logs {
		if l.CampaignID == id {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return removed, nil
}

func (r *MemoryRepo) CountLogsByStatus(ctx context.Context, campaignID string) (map[LogStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[LogStatus]int64{}
	for _, l := range r.logs {
		if l.CampaignID == campaignID {
			out[l.Status]++
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListLogs(ctx context.Context, campaignID string, skip, limit int64) ([]MessageLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []MessageLog{}
	for _, l := range r.logs {
		if l.CampaignID == campaignID {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if skip >= total {
		return []MessageLog{}, total, nil
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	return matched[skip:end], total, nil
}

func (r *MemoryRepo) MarkLogDelivered(ctx context.Context, providerID string) (MessageLog, bool, error) {
	return r.moveLog(providerID, LogStatusDelivered, "")
}

func (r *MemoryRepo) MarkLogUndelivered(ctx context.Context, providerID, reason string) (MessageLog, bool, error) {
	return r.moveLog(providerID, LogStatusUndelivered, reason)
}

func (r *MemoryRepo) moveLog(providerID string, to LogStatus, reason string) (MessageLog, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if providerID == "" {
		return MessageLog{}, false, nil
	}
	for i, l := range r.logs {
		if l.ProviderID != providerID || l.Status != LogStatusSent {
			continue
		}
		l.Status = to
		if reason != "" {
			l.Error = reason
		}
		l.UpdatedAt = time.Now().UTC()
		r.logs[i] = l
		return l, true, nil
	}
	return MessageLog{}, false, nil
}

func (r *MemoryRepo) IncDelivered(ctx context.Context, campaignID string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return ErrNotFound
	}
	c.Stats.Delivered += n
	r.campaigns[campaignID] = c
	return nil
}

// Logs returns a copy of every stored log.
func (r *MemoryRepo) Logs() []MessageLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MessageLog(nil), r.logs...)
}

// Count returns the number of stored campaigns.
func (r *MemoryRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.campaigns)
}
