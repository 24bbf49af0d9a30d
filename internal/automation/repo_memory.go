package automation

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory job store with the same claim semantics as the
// Mongo implementation.
type MemoryRepo struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{jobs: map[string]Job{}} }

func (r *MemoryRepo) Insert(ctx context.Context, j *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID.IsZero() {
		j.ID = primitive.NewObjectID()
	}
	r.jobs[j.ID.Hex()] = *j
	return nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, userID, id string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.UserID != userID {
		return Job{}, ErrNotFound
	}
	return j, nil
}

func (r *MemoryRepo) Claim(ctx context.Context, id, workerID string, at, staleBefore time.Time) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	abandoned := j.Status == JobStatusRunning && j.UpdatedAt.Before(staleBefore)
	if j.Status != JobStatusQueued && !abandoned {
		return Job{}, ErrNotClaimable
	}
	j.Status = JobStatusRunning
	j.WorkerID = workerID
	j.StartedAt = &at
	j.UpdatedAt = at
	r.jobs[id] = j
	return j, nil
}

func (r *MemoryRepo) Advance(ctx context.Context, id, workerID string, completedSteps, progress int, at time.Time) error {
	return r.updateClaimed(id, workerID, func(j *Job) {
		j.CompletedSteps = completedSteps
		j.Progress = progress
		j.UpdatedAt = at
	})
}

func (r *MemoryRepo) Finish(ctx context.Context, id, workerID string, status JobStatus, errMsg string, at time.Time) error {
	return r.updateClaimed(id, workerID, func(j *Job) {
		j.Status = status
		if errMsg != "" {
			j.Error = errMsg
		}
		if status == JobStatusCompleted {
			j.Progress = 100
		}
		j.FinishedAt = &at
		j.UpdatedAt = at
	})
}

func (r *MemoryRepo) updateClaimed(id, workerID string, fn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.WorkerID != workerID || j.Status != JobStatusRunning {
		return ErrLostClaim
	}
	fn(&j)
	r.jobs[id] = j
	return nil
}

func (r *MemoryRepo) Fail(ctx context.Context, id, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status == JobStatusQueued {
		j.Status = JobStatusFailed
		j.Error = errMsg
		j.FinishedAt = &at
		j.UpdatedAt = at
		r.jobs[id] = j
	}
	return nil
}

// Job returns a stored job regardless of owner.
func (r *MemoryRepo) Job(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	return j, ok
}
