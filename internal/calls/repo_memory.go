package calls

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is a simple in-memory repository useful for tests. It applies
// the same ordering guard as the Mongo implementation.
type MemoryRepo struct {
	mu         sync.Mutex
	calls      map[string]Call
	recordings map[string]Recording
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{calls: map[string]Call{}, recordings: map[string]Recording{}}
}

func (r *MemoryRepo) Insert(ctx context.Context, c *Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.calls[c.CallSid] = *c
	return nil
}

func (r *MemoryRepo) FindBySid(ctx context.Context, sid string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[sid]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ApplyStatus(ctx context.Context, sid string, u StatusUpdate) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[sid]
	if !ok {
		return Call{}, ErrNotFound
	}
	if u.Sequence >= 0 {
		if c.LastSequence >= u.Sequence {
			return Call{}, ErrStaleEvent
		}
		c.LastSequence = u.Sequence
	} else if u.At.Before(c.LastEventAt) {
		return Call{}, ErrStaleEvent
	}

	c.Status = u.Status
	c.LastEventAt = u.At
	if u.HasDuration {
		c.DurationSeconds = u.DurationSeconds
		c.Cost = u.Cost
	}
	if u.Status.Terminal() {
		at := u.At
		c.EndedAt = &at
	}
	c.UpdatedAt = time.Now().UTC()
	r.calls[sid] = c
	return c, nil
}

func (r *MemoryRepo) SetRecording(ctx context.Context, sid, url string) (Call, error) {
	return r.update(sid, func(c *Call) { c.RecordingURL = url })
}

func (r *MemoryRepo) SetTranscription(ctx context.Context, sid, text, status string) (Call, error) {
	return r.update(sid, func(c *Call) { c.TranscriptionText, c.TranscriptionStatus = text, status })
}

func (r *MemoryRepo) update(sid string, fn func(*Call)) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[sid]
	if !ok {
		return Call{}, ErrNotFound
	}
	fn(&c)
	c.UpdatedAt = time.Now().UTC()
	r.calls[sid] = c
	return c, nil
}

func (r *MemoryRepo) UpsertRecording(ctx context.Context, rec *Recording) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.recordings[rec.RecordingSid]
	if !ok {
		existing = Recording{ID: primitive.NewObjectID(), RecordingSid: rec.RecordingSid, CreatedAt: now}
	}
	existing.UserID = rec.UserID
	existing.CallSid = rec.CallSid
	existing.URL = rec.URL
	existing.DurationSeconds = rec.DurationSeconds
	existing.UpdatedAt = now
	r.recordings[rec.RecordingSid] = existing
	return nil
}

func (r *MemoryRepo) SetRecordingTranscription(ctx context.Context, recordingSid, transcriptionSid, text, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recordings[recordingSid]
	if !ok {
		return ErrNotFound
	}
	rec.TranscriptionSid = transcriptionSid
	rec.TranscriptionText = text
	rec.TranscriptionStatus = status
	rec.UpdatedAt = time.Now().UTC()
	r.recordings[recordingSid] = rec
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, skip, limit int64) ([]Call, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []Call{}
	for _, c := range r.calls {
		if c.UserID == userID {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if skip >= total {
		return []Call{}, total, nil
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	return matched[skip:end], total, nil
}

func (r *MemoryRepo) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Call{}
	for _, c := range r.calls {
		if c.UserID == userID && !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Recording returns a stored recording by its SID.
func (r *MemoryRepo) Recording(recordingSid string) (Recording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recordings[recordingSid]
	return rec, ok
}
