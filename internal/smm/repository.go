package smm

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("smm order not found")

// StatusPatch carries the fields refreshed from the panel.
type StatusPatch struct {
	Status     OrderStatus
	Remains    int64
	StartCount int64
}

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, userID, id string) (Order, error)
	UpdateStatus(ctx context.Context, userID, id string, p StatusPatch) (Order, error)
	List(ctx context.Context, userID string, skip, limit int64) ([]Order, int64, error)
}
