package smm

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory order store for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	orders map[string]Order
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{orders: map[string]Order{}} }

func (r *MemoryRepo) Insert(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.orders[o.ID.Hex()] = *o
	return nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, userID, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID, id string, p StatusPatch) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.UserID != userID {
		return Order{}, ErrNotFound
	}
	o.Status, o.Remains, o.StartCount = p.Status, p.Remains, p.StartCount
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	return o, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, skip, limit int64) ([]Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []Order{}
	for _, o := range r.orders {
		if o.UserID == userID {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if skip >= total {
		return []Order{}, total, nil
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	return matched[skip:end], total, nil
}

// Count returns the number of stored orders.
func (r *MemoryRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
