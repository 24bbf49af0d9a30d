package automation

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job is one social-account automation run. Progress is written only by the
// worker holding the claim (WorkerID).
type Job struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID string             `json:"userId" bson:"userId"`

	Platform string `json:"platform" bson:"platform"`
	Action   string `json:"action" bson:"action"`
	Target   string `json:"target" bson:"target"`

	TotalSteps     int `json:"totalSteps" bson:"totalSteps"`
	CompletedSteps int `json:"completedSteps" bson:"completedSteps"`
	// Progress is a percentage, 0-100.
	Progress int `json:"progress" bson:"progress"`

	Status   JobStatus `json:"status" bson:"status"`
	WorkerID string    `json:"workerId,omitempty" bson:"workerId,omitempty"`
	Error    string    `json:"error,omitempty" bson:"error,omitempty"`

	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"`
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Platforms and actions a job may target.
var (
	platforms = map[string]bool{"instagram": true, "facebook": true, "twitter": true, "youtube": true, "linkedin": true}
	actions   = map[string]bool{"follow": true, "like": true, "comment": true, "view": true, "share": true}
)

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := done * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}
