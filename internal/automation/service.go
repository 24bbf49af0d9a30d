package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brandbuzz/pkg/logger"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Enqueuer hands a job id to the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}

type Service struct {
	repo     Repository
	queue    Enqueuer
	maxSteps int
	clock    func() time.Time
}

func NewService(repo Repository, queue Enqueuer, maxSteps int) *Service {
	if maxSteps <= 0 {
		maxSteps = 100
	}
	return &Service{repo: repo, queue: queue, maxSteps: maxSteps, clock: time.Now}
}

type CreateRequest struct {
	Platform string `json:"platform"`
	Action   string `json:"action"`
	Target   string `json:"target"`
	Steps    int    `json:"steps"`
}

// Create stores a queued job and publishes it for a worker. A job the queue
// refused is marked failed so pollers see a final state.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Job, error) {
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	action := strings.ToLower(strings.TrimSpace(req.Action))
	switch {
	case userID == "":
		return Job{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	case !platforms[platform]:
		return Job{}, fmt.Errorf("%w: unsupported platform %q", ErrInvalidArgument, req.Platform)
	case !actions[action]:
		return Job{}, fmt.Errorf("%w: unsupported action %q", ErrInvalidArgument, req.Action)
	case strings.TrimSpace(req.Target) == "":
		return Job{}, fmt.Errorf("%w: target is required", ErrInvalidArgument)
	case req.Steps <= 0 || req.Steps > s.maxSteps:
		return Job{}, fmt.Errorf("%w: steps must be between 1 and %d", ErrInvalidArgument, s.maxSteps)
	}

	now := s.clock().UTC()
	j := Job{
		UserID:     userID,
		Platform:   platform,
		Action:     action,
		Target:     strings.TrimSpace(req.Target),
		TotalSteps: req.Steps,
		Status:     JobStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, &j); err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}

	id := j.ID.Hex()
	if err := s.queue.Enqueue(ctx, id); err != nil {
		logger.From(ctx).Error("job enqueue failed", "job_id", id, "err", err)
		if ferr := s.repo.Fail(ctx, id, "queue unavailable", s.clock().UTC()); ferr != nil {
			logger.From(ctx).Error("job fail mark failed", "job_id", id, "err", ferr)
		}
		return Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return j, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Job, error) {
	if userID == "" || id == "" {
		return Job{}, fmt.Errorf("%w: id and userId are required", ErrInvalidArgument)
	}
	return s.repo.FindByID(ctx, userID, id)
}
