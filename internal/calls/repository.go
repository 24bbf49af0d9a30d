package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("call not found")
	// ErrStaleEvent reports a callback older than what was already applied.
	ErrStaleEvent = errors.New("stale call event")
)

// StatusUpdate is one status callback to apply.
type StatusUpdate struct {
	Status CallStatus

	// Sequence orders callbacks; negative when the provider sent none.
	Sequence int
	At       time.Time

	// Duration and Cost are set only when HasDuration is true.
	HasDuration     bool
	DurationSeconds int
	Cost            int64
}

type Repository interface {
	Insert(ctx context.Context, c *Call) error
	FindBySid(ctx context.Context, sid string) (Call, error)

	// ApplyStatus applies u in one conditional update and returns the
	// post-image. It returns ErrStaleEvent when the ordering guard rejects u.
	ApplyStatus(ctx context.Context, sid string, u StatusUpdate) (Call, error)

	SetRecording(ctx context.Context, sid, url string) (Call, error)
	SetTranscription(ctx context.Context, sid, text, status string) (Call, error)
	UpsertRecording(ctx context.Context, r *Recording) error
	SetRecordingTranscription(ctx context.Context, recordingSid, transcriptionSid, text, status string) error

	List(ctx context.Context, userID string, skip, limit int64) ([]Call, int64, error)
	ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Call, error)
}
