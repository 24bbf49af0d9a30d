package contacts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is a simple in-memory repository useful for tests.
type MemoryRepo struct {
	mu       sync.Mutex
	contacts map[string]Contact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{contacts: map[string]Contact{}}
}

func (r *MemoryRepo) InsertMany(ctx context.Context, cs []*Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cs {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		r.contacts[c.ID.Hex()] = *c
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Contact, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids map[string]bool
	if len(f.IDs) > 0 {
		ids = make(map[string]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	search := strings.ToLower(f.Search)

	matched := []Contact{}
	for _, c := range r.contacts {
		if c.UserID != f.UserID || c.Status == StatusDeleted {
			continue
		}
		if f.Group != "" && c.Group != f.Group {
			continue
		}
		if ids != nil && !ids[c.ID.Hex()] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) &&
			!strings.Contains(c.Phone, search) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.Hex() > matched[j].ID.Hex()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if f.Skip >= total {
		return []Contact{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Skip+f.Limit < total {
		end = f.Skip + f.Limit
	}
	return matched[f.Skip:end], total, nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, userID, id string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.UserID != userID || c.Status == StatusDeleted {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) Update(ctx context.Context, userID, id string, p Patch) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.UserID != userID || c.Status == StatusDeleted {
		return Contact{}, ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Group != nil {
		c.Group = *p.Group
	}
	if p.Tags != nil {
		c.Tags = *p.Tags
	}
	c.UpdatedAt = time.Now().UTC()
	r.contacts[id] = c
	return c, nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.UserID != userID || c.Status == StatusDeleted {
		return ErrNotFound
	}
	c.Status = StatusDeleted
	c.UpdatedAt = time.Now().UTC()
	r.contacts[id] = c
	return nil
}
