package contacts

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("contact not found")

// Filter selects active contacts of one user.
type Filter struct {
	UserID string
	Group  string
	// Search matches name, email or phone, case-insensitively.
	Search string

	// IDs restricts the result to these contacts when non-empty.
	IDs []string

	Skip  int64
	Limit int64
}

// Patch holds the fields an update may change; nil means unchanged.
type Patch struct {
	Name  *string   `json:"name"`
	Email *string   `json:"email"`
	Phone *string   `json:"phone"`
	Group *string   `json:"group"`
	Tags  *[]string `json:"tags"`
}

// Repository is the persistence contract for contacts. Every read excludes
// deleted contacts and every lookup is scoped by owner.
type Repository interface {
	InsertMany(ctx context.Context, cs []*Contact) error
	List(ctx context.Context, f Filter) ([]Contact, int64, error)
	FindByID(ctx context.Context, userID, id string) (Contact, error)
	Update(ctx context.Context, userID, id string, p Patch) (Contact, error)
	SoftDelete(ctx context.Context, userID, id string) error
}
