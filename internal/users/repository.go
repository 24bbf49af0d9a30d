package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repository is the persistence contract for users.
type Repository interface {
	Insert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// FindByPhoneNumber resolves the owner of a provider number.
	FindByPhoneNumber(ctx context.Context, number string) (User, error)
	UpdateVoiceSettings(ctx context.Context, id string, numbers []string, forward []ForwardNumber) (User, error)
}
