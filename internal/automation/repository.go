package automation

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("automation job not found")
	// ErrNotClaimable means the job is neither queued nor abandoned, usually
	// because another worker holds it.
	ErrNotClaimable = errors.New("automation job is not claimable")
	// ErrLostClaim means a progress write matched no job held by the worker.
	ErrLostClaim = errors.New("automation job claim lost")
)

type Repository interface {
	Insert(ctx context.Context, j *Job) error
	FindByID(ctx context.Context, userID, id string) (Job, error)

	// Claim moves a job to running for workerID in one conditional update.
	// A job is claimable while queued, or while running with no write since
	// staleBefore (its worker died or stalled).
	Claim(ctx context.Context, id, workerID string, at, staleBefore time.Time) (Job, error)

	// Advance and Finish only match jobs running under workerID.
	Advance(ctx context.Context, id, workerID string, completedSteps, progress int, at time.Time) error
	Finish(ctx context.Context, id, workerID string, status JobStatus, errMsg string, at time.Time) error

	// Fail marks a job that never reached a worker.
	Fail(ctx context.Context, id, errMsg string, at time.Time) error
}
