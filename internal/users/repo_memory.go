package users

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is a simple in-memory repository useful for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: map[primitive.ObjectID]User{}}
}

func (r *MemoryRepo) Insert(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[oid]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.find(func(u User) bool { return u.Email == email })
}

func (r *MemoryRepo) FindByPhoneNumber(ctx context.Context, number string) (User, error) {
	return r.find(func(u User) bool {
		for _, n := range u.PhoneNumbers {
			if n == number {
				return true
			}
		}
		return false
	})
}

func (r *MemoryRepo) UpdateVoiceSettings(ctx context.Context, id string, numbers []string, forward []ForwardNumber) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[oid]
	if !ok {
		return User{}, ErrNotFound
	}
	u.PhoneNumbers = numbers
	u.ForwardNumbers = forward
	r.users[oid] = u
	return u, nil
}

func (r *MemoryRepo) find(match func(User) bool) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
