package campaigns

import (
	"time"

	"brandbuzz/internal/contacts"
	"brandbuzz/internal/providers"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign is one dispatch request's aggregate record.
//
// Invariant: RecipientCount equals the number of MessageLogs written for the
// campaign at dispatch time.
type Campaign struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID string             `json:"userId" bson:"userId"`

	Name     string            `json:"name" bson:"name"`
	Type     providers.Channel `json:"type" bson:"type"`
	Message  string            `json:"message" bson:"message"`
	Subject  string            `json:"subject,omitempty" bson:"subject,omitempty"`
	AudioURL string            `json:"audioUrl,omitempty" bson:"audioUrl,omitempty"`

	Recipients     []contacts.Recipient `json:"recipients" bson:"recipients"`
	RecipientCount int                  `json:"recipientCount" bson:"recipientCount"`

	Stats  Stats  `json:"stats" bson:"stats"`
	Status Status `json:"status" bson:"status"`

	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

type Stats struct {
	Sent      int   `json:"sent" bson:"sent"`
	Delivered int   `json:"delivered" bson:"delivered"`
	Failed    int   `json:"failed" bson:"failed"`
	Cost      int64 `json:"cost" bson:"cost"`
}

type Status string

const (
	StatusDraft              Status = "draft"
	StatusProcessing         Status = "processing"
	StatusCompleted          Status = "completed"
	StatusPartiallyCompleted Status = "partially_completed"
	StatusFailed             Status = "failed"
)

// StatusFor derives the final status from send outcomes.
func StatusFor(sent, failed int) Status {
	switch {
	case sent == 0:
		return StatusFailed
	case failed == 0:
		return StatusCompleted
	default:
		return StatusPartiallyCompleted
	}
}

// MessageLog is the outcome of one send to one recipient.
type MessageLog struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CampaignID string             `json:"campaignId" bson:"campaignId"`
	UserID     string             `json:"userId" bson:"userId"`
	ContactID  string             `json:"contactId" bson:"contactId"`

	Channel providers.Channel `json:"channel" bson:"channel"`
	Address string            `json:"address" bson:"address"`

	Status     LogStatus `json:"status" bson:"status"`
	ProviderID string    `json:"providerId,omitempty" bson:"providerId,omitempty"`
	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
	Cost       int64     `json:"cost" bson:"cost"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type LogStatus string

const (
	LogStatusSent        LogStatus = "sent"
	LogStatusFailed      LogStatus = "failed"
	LogStatusDelivered   LogStatus = "delivered"
	LogStatusUndelivered LogStatus = "undelivered"
)
