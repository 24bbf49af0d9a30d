package automation

import (
	"context"
	"errors"
	"time"

	"brandbuzz/internal/events"
	"brandbuzz/pkg/logger"

	"github.com/google/uuid"
)

// Performer executes one step of a job.
type Performer interface {
	Perform(ctx context.Context, j Job, step int) error
}

// PerformerFunc adapts a function to Performer.
type PerformerFunc func(ctx context.Context, j Job, step int) error

func (f PerformerFunc) Perform(ctx context.Context, j Job, step int) error { return f(ctx, j, step) }

// SimulatedPerformer only logs. Platform integrations are not wired.
var SimulatedPerformer = PerformerFunc(func(ctx context.Context, j Job, step int) error {
	logger.From(ctx).Debug("automation step", "job_id", j.ID.Hex(), "step", step, "action", j.Action)
	return nil
})

// DefaultLease is how long a running job may go without a progress write
// before another worker may take it over.
const DefaultLease = 5 * time.Minute

// Worker runs jobs it has claimed. Every write after the claim is filtered on
// its id, so a second worker handed the same message cannot interleave
// progress writes.
type Worker struct {
	ID        string
	repo      Repository
	performer Performer
	events    events.Publisher
	stepDelay time.Duration
	lease     time.Duration
	clock     func() time.Time
}

func NewWorker(repo Repository, performer Performer, pub events.Publisher, stepDelay time.Duration) *Worker {
	if performer == nil {
		performer = SimulatedPerformer
	}
	if pub == nil {
		pub = events.Nop{}
	}
	lease := DefaultLease
	if 4*stepDelay > lease {
		lease = 4 * stepDelay
	}
	return &Worker{ID: uuid.NewString(), repo: repo, performer: performer, events: pub, stepDelay: stepDelay, lease: lease, clock: time.Now}
}

// Handle processes one job id. It returns nil for jobs that are gone, taken
// or settled so the message is acked; other errors requeue it. A job taken
// over from a dead worker resumes after its last completed step.
func (w *Worker) Handle(ctx context.Context, jobID string) error {
	log := logger.From(ctx).With("job_id", jobID, "worker_id", w.ID)

	now := w.clock().UTC()
	j, err := w.repo.Claim(ctx, jobID, w.ID, now, now.Add(-w.lease))
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotClaimable) {
		log.Info("job skipped", "reason", err.Error())
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("job claimed", "steps", j.TotalSteps, "resume_after", j.CompletedSteps)

	for step := j.CompletedSteps + 1; step <= j.TotalSteps; step++ {
		if w.stepDelay > 0 {
			select {
			case <-ctx.Done():
				return w.finish(context.WithoutCancel(ctx), j, JobStatusFailed, "worker stopped")
			case <-time.After(w.stepDelay):
			}
		}
		if err := w.performer.Perform(ctx, j, step); err != nil {
			log.Warn("job step failed", "step", step, "err", err)
			return w.finish(ctx, j, JobStatusFailed, err.Error())
		}
		err := w.repo.Advance(ctx, jobID, w.ID, step, percent(step, j.TotalSteps), w.clock().UTC())
		if errors.Is(err, ErrLostClaim) {
			log.Warn("job claim lost", "step", step)
			return nil
		}
		if err != nil {
			log.Error("job progress write failed", "step", step, "err", err)
			return w.finish(context.WithoutCancel(ctx), j, JobStatusFailed, "progress not saved")
		}
	}
	return w.finish(ctx, j, JobStatusCompleted, "")
}

func (w *Worker) finish(ctx context.Context, j Job, status JobStatus, errMsg string) error {
	id := j.ID.Hex()
	err := w.repo.Finish(ctx, id, w.ID, status, errMsg, w.clock().UTC())
	if errors.Is(err, ErrLostClaim) {
		return nil
	}
	if err != nil {
		return err
	}
	if perr := w.events.Publish(ctx, events.SubjectAutomationJob, map[string]any{
		"jobId":  id,
		"userId": j.UserID,
		"status": status,
		"error":  errMsg,
	}); perr != nil {
		logger.From(ctx).Warn("job event publish failed", "job_id", id, "err", perr)
	}
	return nil
}
